package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
)

const (
	defaultDueWindow     = 5 * time.Minute
	defaultRetentionDays = 7
	defaultIcon          = "/logo.png"
)

var (
	// ErrInvalidMealTime 表示 12 小时制用餐时间无法解析
	ErrInvalidMealTime = errors.New("invalid meal time")
	// ErrInvalidClockTime 表示 24 小时制 HH:MM 无法解析
	ErrInvalidClockTime = errors.New("invalid clock time")
)

// sentLedger 记录某类通知在某天已经发送过的条目，键为 {ns}{prefix}{YYYY-MM-DD}
type sentLedger struct {
	prefix string
	kind   string
}

var (
	mealLedger    = sentLedger{prefix: userdata.PrefixSentNotifications, kind: "meal"}
	workoutLedger = sentLedger{prefix: userdata.PrefixSentWorkoutReminders, kind: "workout"}
)

func (l sentLedger) load(scope userdata.Scope, day time.Time) []string {
	var sent []string
	if !scope.Load(userdata.DayKey(l.prefix, day), &sent) || sent == nil {
		return []string{}
	}
	return sent
}

// record 追加一个条目，整天列表读改写
func (l sentLedger) record(scope userdata.Scope, day time.Time, item string) error {
	sent := l.load(scope, day)
	sent = append(sent, item)
	if err := scope.Save(userdata.DayKey(l.prefix, day), sent); err != nil {
		return fmt.Errorf("record sent %s notification: %w", l.kind, err)
	}
	return nil
}

// prune 删除早于 today-retentionDays 的账本；没有身份时无法确定前缀，直接跳过
func (l sentLedger) prune(scope userdata.Scope, now time.Time, retentionDays int, logger *zap.Logger) int {
	if scope.Identity() == "" {
		return 0
	}

	days, err := scope.DayKeys(l.prefix)
	if err != nil {
		logger.Warn("list notification ledger failed", zap.String("kind", l.kind), zap.Error(err))
		return 0
	}

	cutoff := normalizeToDate(now).AddDate(0, 0, -retentionDays)
	removed := 0
	for suffix, key := range days {
		day, err := time.ParseInLocation(userdata.DateLayout, suffix, now.Location())
		if err != nil || !day.Before(cutoff) {
			continue
		}
		if err := scope.Store().Remove(key); err != nil {
			logger.Warn("prune notification ledger failed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.LedgerPruned.WithLabelValues(l.kind).Add(float64(removed))
	}
	return removed
}

func contains(items []string, item string) bool {
	for _, candidate := range items {
		if candidate == item {
			return true
		}
	}
	return false
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// withinWindow 判断当前分钟与目标分钟之差是否不超过窗口，跨午夜不回绕
func withinWindow(now time.Time, target int, window time.Duration) bool {
	diff := minutesOfDay(now) - target
	if diff < 0 {
		diff = -diff
	}
	return diff <= int(window/time.Minute)
}

// ParseMealTime 把 "H:MM AM/PM" 转为午夜起的分钟数；缺少 AM/PM 时按 24 小时制处理
func ParseMealTime(value string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(value))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMealTime, value)
	}

	hours, minutes, err := splitClock(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMealTime, value)
	}

	if len(fields) == 1 {
		if hours > 23 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMealTime, value)
		}
		return hours*60 + minutes, nil
	}

	if hours < 1 || hours > 12 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMealTime, value)
	}
	switch strings.ToUpper(fields[1]) {
	case "AM":
		if hours == 12 {
			hours = 0
		}
	case "PM":
		if hours != 12 {
			hours += 12
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMealTime, value)
	}
	return hours*60 + minutes, nil
}

// ParseClock 把 24 小时制 "HH:MM" 转为午夜起的分钟数
func ParseClock(value string) (int, error) {
	hours, minutes, err := splitClock(strings.TrimSpace(value))
	if err != nil || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, value)
	}
	return hours*60 + minutes, nil
}

func splitClock(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected H:MM")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, 0, errors.New("bad hours")
	}
	if len(parts[1]) != 2 {
		return 0, 0, errors.New("bad minutes")
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, 0, errors.New("bad minutes")
	}
	return hours, minutes, nil
}
