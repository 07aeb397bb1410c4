package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
)

const workoutReminderTitle = "💪 Time to Work Out!"

// ErrInvalidReminder 表示提醒配置不合法
var ErrInvalidReminder = errors.New("invalid workout reminder")

// WorkoutReminder 是按星期重复的训练提醒，Days 取值 0-6（周日为 0），Time 为 24 小时制 "HH:MM"
type WorkoutReminder struct {
	WorkoutID   string `json:"workoutId"`
	WorkoutName string `json:"workoutName"`
	Time        string `json:"time"`
	Enabled     bool   `json:"enabled"`
	Days        []int  `json:"days"`
}

// WorkoutReminderService 管理多条训练提醒（以 WorkoutID 为键）并在到点时发出通知
type WorkoutReminderService struct {
	mu            sync.Mutex
	platform      notify.Platform
	now           func() time.Time
	window        time.Duration
	retentionDays int
	icon          string
	logger        *zap.Logger
}

// NewWorkoutReminderService 构造 WorkoutReminderService
func NewWorkoutReminderService(platform notify.Platform, logger *zap.Logger) *WorkoutReminderService {
	if platform == nil {
		platform = notify.Unsupported{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutReminderService{
		platform:      platform,
		now:           time.Now,
		window:        defaultDueWindow,
		retentionDays: defaultRetentionDays,
		icon:          defaultIcon,
		logger:        logger,
	}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *WorkoutReminderService) WithClock(now func() time.Time) *WorkoutReminderService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithDueWindow 调整到点判断的容差窗口。
func (s *WorkoutReminderService) WithDueWindow(d time.Duration) *WorkoutReminderService {
	if d > 0 {
		s.window = d
	}
	return s
}

// WithRetentionDays 调整账本保留天数。
func (s *WorkoutReminderService) WithRetentionDays(days int) *WorkoutReminderService {
	if days > 0 {
		s.retentionDays = days
	}
	return s
}

// WithIcon 设置通知图标。
func (s *WorkoutReminderService) WithIcon(icon string) *WorkoutReminderService {
	if trimmed := strings.TrimSpace(icon); trimmed != "" {
		s.icon = trimmed
	}
	return s
}

// RequestPermission 请求通知权限
func (s *WorkoutReminderService) RequestPermission(ctx context.Context) bool {
	return notify.RequestPermission(ctx, s.platform)
}

// Reminders 返回全部提醒，不存在或损坏时返回空列表
func (s *WorkoutReminderService) Reminders(scope userdata.Scope) []WorkoutReminder {
	var reminders []WorkoutReminder
	if !scope.Load(userdata.KeyWorkoutReminders, &reminders) || reminders == nil {
		return []WorkoutReminder{}
	}
	return reminders
}

// Reminder 返回指定训练的提醒
func (s *WorkoutReminderService) Reminder(scope userdata.Scope, workoutID string) (WorkoutReminder, bool) {
	for _, reminder := range s.Reminders(scope) {
		if reminder.WorkoutID == workoutID {
			return reminder, true
		}
	}
	return WorkoutReminder{}, false
}

// SaveReminder 按 WorkoutID upsert：存在则原位替换，否则追加
func (s *WorkoutReminderService) SaveReminder(scope userdata.Scope, reminder WorkoutReminder) (WorkoutReminder, error) {
	reminder.WorkoutID = strings.TrimSpace(reminder.WorkoutID)
	reminder.WorkoutName = strings.TrimSpace(reminder.WorkoutName)
	reminder.Time = strings.TrimSpace(reminder.Time)
	if err := validateReminder(reminder); err != nil {
		return WorkoutReminder{}, err
	}
	if reminder.Days == nil {
		reminder.Days = []int{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := s.Reminders(scope)
	replaced := false
	for i := range reminders {
		if reminders[i].WorkoutID == reminder.WorkoutID {
			reminders[i] = reminder
			replaced = true
			break
		}
	}
	if !replaced {
		reminders = append(reminders, reminder)
	}

	if err := scope.Save(userdata.KeyWorkoutReminders, reminders); err != nil {
		return WorkoutReminder{}, fmt.Errorf("save workout reminder: %w", err)
	}
	return reminder, nil
}

// DeleteReminder 删除指定训练的提醒，不存在时不报错
func (s *WorkoutReminderService) DeleteReminder(scope userdata.Scope, workoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders := s.Reminders(scope)
	filtered := make([]WorkoutReminder, 0, len(reminders))
	for _, reminder := range reminders {
		if reminder.WorkoutID != workoutID {
			filtered = append(filtered, reminder)
		}
	}

	if err := scope.Save(userdata.KeyWorkoutReminders, filtered); err != nil {
		return fmt.Errorf("delete workout reminder: %w", err)
	}
	return nil
}

// CheckDue 清理过期账本，然后对启用的、今天在计划星期内、处于容差窗口且今天尚未提醒过的训练发出通知
func (s *WorkoutReminderService) CheckDue(ctx context.Context, scope userdata.Scope) []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	workoutLedger.prune(scope, now, s.retentionDays, s.logger)

	reminders := s.Reminders(scope)
	if len(reminders) == 0 {
		return nil
	}

	weekday := int(now.Weekday())
	sent := workoutLedger.load(scope, now)
	var fired []notify.Notification
	for _, reminder := range reminders {
		if !reminder.Enabled || !containsDay(reminder.Days, weekday) {
			continue
		}
		target, err := ParseClock(reminder.Time)
		if err != nil {
			s.logger.Warn("skipping reminder with invalid time",
				zap.String("workout", reminder.WorkoutID),
				zap.Error(err),
			)
			continue
		}
		if !withinWindow(now, target, s.window) || contains(sent, reminder.WorkoutID) {
			continue
		}

		n := notify.Notification{
			Kind:     workoutLedger.kind,
			Identity: scope.Identity(),
			Title:    workoutReminderTitle,
			Body:     fmt.Sprintf("%s\nYour scheduled workout is starting now. Let's crush it!", reminder.WorkoutName),
			Icon:     s.icon,
			Tag:      "workout-" + reminder.WorkoutID,
		}
		s.deliver(ctx, n)

		if err := workoutLedger.record(scope, now, reminder.WorkoutID); err != nil {
			s.logger.Warn("record workout reminder failed", zap.String("workout", reminder.WorkoutID), zap.Error(err))
			continue
		}
		sent = append(sent, reminder.WorkoutID)
		fired = append(fired, n)
	}
	return fired
}

func (s *WorkoutReminderService) deliver(ctx context.Context, n notify.Notification) {
	shown, err := notify.Deliver(ctx, s.platform, n)
	if err != nil {
		s.logger.Warn("show workout reminder failed", zap.String("tag", n.Tag), zap.Error(err))
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

func validateReminder(reminder WorkoutReminder) error {
	if reminder.WorkoutID == "" {
		return fmt.Errorf("%w: workout id is required", ErrInvalidReminder)
	}
	if _, err := ParseClock(reminder.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	for _, day := range reminder.Days {
		if day < 0 || day > 6 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidReminder, day)
		}
	}
	return nil
}

func containsDay(days []int, day int) bool {
	for _, candidate := range days {
		if candidate == day {
			return true
		}
	}
	return false
}
