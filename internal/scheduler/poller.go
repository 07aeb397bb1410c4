// Package scheduler 以固定间隔驱动到点检查，对应用餐提醒与训练提醒两个轮询器。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fitlog/internal/metrics"
	"go.uber.org/zap"
)

// DefaultInterval 是两个轮询器的默认间隔
const DefaultInterval = 60 * time.Second

// ErrAlreadyRunning 在重复 Start 时返回
var ErrAlreadyRunning = errors.New("poller is already running")

// CheckFunc 执行一次检查，now 为本次触发时刻
type CheckFunc func(ctx context.Context, now time.Time)

// Poller 启动时立即检查一次，之后按 Interval 周期检查直到被停止。
// 单次检查的 panic 会被恢复并记录，不会终止轮询。
type Poller struct {
	name     string
	interval time.Duration
	check    CheckFunc
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller 构造 Poller，interval 非正数时使用 DefaultInterval
func NewPoller(name string, interval time.Duration, check CheckFunc, logger *zap.Logger) (*Poller, error) {
	if check == nil {
		return nil, fmt.Errorf("poller %s: check cannot be nil", name)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		name:     name,
		interval: interval,
		check:    check,
		now:      time.Now,
		logger:   logger.With(zap.String("scheduler", name)),
	}, nil
}

// Name 返回轮询器名称
func (p *Poller) Name() string {
	return p.name
}

// Interval 返回轮询间隔
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run 阻塞运行直到 ctx 结束，ctx 正常取消时返回 nil
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("scheduler started", zap.Duration("interval", p.interval))
	defer p.logger.Info("scheduler stopped")

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Start 在后台 goroutine 中运行，配合 Stop 使用
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go func(done chan struct{}) {
		defer close(done)
		_ = p.Run(runCtx)
	}(p.done)
	return nil
}

// Stop 停止后台运行并等待当前检查结束，未运行时为空操作
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("scheduler check panicked, recovering",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if ctx.Err() != nil {
		return
	}
	metrics.SchedulerTicks.WithLabelValues(p.name).Inc()
	p.check(ctx, p.now())
}
