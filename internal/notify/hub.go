package notify

import (
	"context"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const defaultSubscriberBuffer = 16

// Hub 进程内的通知平台，把通知分发给流订阅者。
// 授权状态是进程级的，与浏览器按源授权一致。
type Hub struct {
	mu          sync.Mutex
	permission  Permission
	subscribers map[string]*Subscription
	iconPolicy  *bluemonday.Policy
	now         func() time.Time
	logger      *zap.Logger
}

// Subscription 某个身份的通知订阅，Identity 为空时接收全部通知
type Subscription struct {
	ID       string
	Identity string
	C        <-chan Notification

	ch chan Notification
}

// NewHub 创建通知中心，初始授权为未决
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 图标会被客户端当作图片地址加载，只放行可解析的 http(s) 或相对地址
	iconPolicy := bluemonday.NewPolicy()
	iconPolicy.AllowAttrs("src").OnElements("img")
	iconPolicy.AllowStandardURLs()

	return &Hub{
		permission:  PermissionDefault,
		subscribers: make(map[string]*Subscription),
		iconPolicy:  iconPolicy,
		now:         time.Now,
		logger:      logger,
	}
}

func (h *Hub) Supported() bool { return true }

func (h *Hub) Permission() Permission {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.permission
}

// RequestPermission 记录 ctx 中携带的用户答复（见 WithDecision），没有答复时保持未决
func (h *Hub) RequestPermission(ctx context.Context) (Permission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.permission != PermissionDefault {
		return h.permission, nil
	}

	granted, ok := DecisionFromContext(ctx)
	if !ok {
		return h.permission, nil
	}
	if granted {
		h.permission = PermissionGranted
	} else {
		h.permission = PermissionDenied
	}
	h.logger.Info("notification permission decided", zap.String("permission", string(h.permission)))
	return h.permission, nil
}

// Show 把通知投递给匹配的订阅者。标题和正文按纯文本原样保留，不安全的图标地址会被丢弃。
// 订阅者缓冲已满时跳过该订阅者，不阻塞调用方。
func (h *Hub) Show(_ context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = h.now()
	}
	if n.Icon != "" {
		icon, ok := h.safeIcon(n.Icon)
		if !ok {
			h.logger.Warn("dropping unsafe notification icon", zap.String("icon", n.Icon))
		}
		n.Icon = icon
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers {
		if sub.Identity != "" && sub.Identity != n.Identity {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			h.logger.Warn("notification subscriber is full", zap.String("subscriber", sub.ID))
		}
	}
	return nil
}

// Subscribe 注册订阅者，返回的函数用于注销并关闭 C
func (h *Hub) Subscribe(identity string, buffer int) (*Subscription, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan Notification, buffer)
	sub := &Subscription{ID: uuid.NewString(), Identity: identity, C: ch, ch: ch}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()
	metrics.StreamSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub.ID)
			close(sub.ch)
			h.mu.Unlock()
			metrics.StreamSubscribers.Dec()
		})
	}
	return sub, cancel
}

// safeIcon 用图片策略校验图标地址，策略移除 src 时返回空串
func (h *Hub) safeIcon(icon string) (string, bool) {
	const prefix, suffix = `<img src="`, `">`

	sanitized := h.iconPolicy.Sanitize(prefix + html.EscapeString(icon) + suffix)
	src, ok := strings.CutPrefix(sanitized, prefix)
	if !ok {
		return "", false
	}
	src, ok = strings.CutSuffix(src, suffix)
	if !ok {
		return "", false
	}
	return html.UnescapeString(src), true
}
