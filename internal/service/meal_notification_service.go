package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
)

const mealNotificationTitle = "🍽️ Time to Eat!"

// MealNotification 是计划中一餐的提醒设置，Time 为 12 小时制 "H:MM AM/PM"
type MealNotification struct {
	MealName string `json:"mealName"`
	Time     string `json:"time"`
	Calories int    `json:"calories"`
}

// MealSchedule 是每个用户唯一的用餐提醒计划
type MealSchedule struct {
	PlanID      string             `json:"planId"`
	Meals       []MealNotification `json:"meals"`
	ScheduledAt string             `json:"scheduledAt"`
}

// MealNotificationService 管理用餐提醒计划并在到点时发出通知
// 状态只有 未计划 / 已计划 两种，新的计划整体替换旧计划
type MealNotificationService struct {
	mu            sync.Mutex
	platform      notify.Platform
	now           func() time.Time
	window        time.Duration
	retentionDays int
	icon          string
	logger        *zap.Logger
}

// NewMealNotificationService 构造 MealNotificationService，默认窗口 5 分钟、账本保留 7 天
func NewMealNotificationService(platform notify.Platform, logger *zap.Logger) *MealNotificationService {
	if platform == nil {
		platform = notify.Unsupported{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealNotificationService{
		platform:      platform,
		now:           time.Now,
		window:        defaultDueWindow,
		retentionDays: defaultRetentionDays,
		icon:          defaultIcon,
		logger:        logger,
	}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *MealNotificationService) WithClock(now func() time.Time) *MealNotificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithDueWindow 调整到点判断的容差窗口。
func (s *MealNotificationService) WithDueWindow(d time.Duration) *MealNotificationService {
	if d > 0 {
		s.window = d
	}
	return s
}

// WithRetentionDays 调整账本保留天数。
func (s *MealNotificationService) WithRetentionDays(days int) *MealNotificationService {
	if days > 0 {
		s.retentionDays = days
	}
	return s
}

// WithIcon 设置通知图标。
func (s *MealNotificationService) WithIcon(icon string) *MealNotificationService {
	if trimmed := strings.TrimSpace(icon); trimmed != "" {
		s.icon = trimmed
	}
	return s
}

// RequestPermission 请求通知权限
func (s *MealNotificationService) RequestPermission(ctx context.Context) bool {
	return notify.RequestPermission(ctx, s.platform)
}

// Schedule 覆盖当前计划并立即检查一次
func (s *MealNotificationService) Schedule(ctx context.Context, scope userdata.Scope, planID string, meals []MealNotification) (MealSchedule, error) {
	if meals == nil {
		meals = []MealNotification{}
	}
	schedule := MealSchedule{
		PlanID:      strings.TrimSpace(planID),
		Meals:       meals,
		ScheduledAt: s.now().Format(time.RFC3339),
	}

	if err := scope.Save(userdata.KeyScheduledMealPlan, schedule); err != nil {
		return MealSchedule{}, fmt.Errorf("schedule meal notifications: %w", err)
	}

	s.CheckDue(ctx, scope)
	return schedule, nil
}

// Cancel 删除当前计划
func (s *MealNotificationService) Cancel(scope userdata.Scope) error {
	if err := scope.Remove(userdata.KeyScheduledMealPlan); err != nil {
		return fmt.Errorf("cancel meal notifications: %w", err)
	}
	return nil
}

// Active 返回当前计划，未计划或数据损坏时返回 nil
func (s *MealNotificationService) Active(scope userdata.Scope) *MealSchedule {
	var schedule MealSchedule
	if !scope.Load(userdata.KeyScheduledMealPlan, &schedule) {
		return nil
	}
	return &schedule
}

// CheckDue 清理过期账本，然后对处于容差窗口内且今天尚未提醒过的餐次发出通知。
// 返回本次记录为已发送的通知。
func (s *MealNotificationService) CheckDue(ctx context.Context, scope userdata.Scope) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	mealLedger.prune(scope, now, s.retentionDays, s.logger)

	schedule := s.Active(scope)
	if schedule == nil {
		return nil
	}

	sent := mealLedger.load(scope, now)
	var fired []notify.Notification
	for _, meal := range schedule.Meals {
		target, err := ParseMealTime(meal.Time)
		if err != nil {
			s.logger.Warn("skipping meal with invalid time",
				zap.String("plan", schedule.PlanID),
				zap.String("meal", meal.MealName),
				zap.Error(err),
			)
			continue
		}
		if !withinWindow(now, target, s.window) || contains(sent, meal.MealName) {
			continue
		}

		n := notify.Notification{
			Kind:     mealLedger.kind,
			Identity: scope.Identity(),
			Title:    mealNotificationTitle,
			Body:     fmt.Sprintf("%s - %d calories\nIt's time for your scheduled meal!", meal.MealName, meal.Calories),
			Icon:     s.icon,
			Tag:      meal.MealName,
		}
		s.deliver(ctx, n)

		if err := mealLedger.record(scope, now, meal.MealName); err != nil {
			s.logger.Warn("record meal notification failed", zap.String("meal", meal.MealName), zap.Error(err))
			continue
		}
		sent = append(sent, meal.MealName)
		fired = append(fired, n)
	}
	return fired
}

func (s *MealNotificationService) deliver(ctx context.Context, n notify.Notification) {
	shown, err := notify.Deliver(ctx, s.platform, n)
	if err != nil {
		s.logger.Warn("show meal notification failed", zap.String("meal", n.Tag), zap.Error(err))
		return
	}
	if shown {
		metrics.NotificationsSent.WithLabelValues(n.Kind).Inc()
		s.logger.Info("notification sent",
			zap.String("kind", n.Kind),
			zap.String("identity", n.Identity),
			zap.String("item", n.Tag),
		)
	}
}
