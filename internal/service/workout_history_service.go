package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fitlog/internal/metrics"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
)

// WorkoutHistoryEntry 记录一次完成的训练，创建后不再修改
type WorkoutHistoryEntry struct {
	WorkoutID          string `json:"workoutId"`
	WorkoutName        string `json:"workoutName"`
	Date               string `json:"date"`
	Duration           int    `json:"duration"`
	CaloriesBurned     int    `json:"caloriesBurned"`
	ExercisesCompleted int    `json:"exercisesCompleted"`
	TotalSets          int    `json:"totalSets"`
}

// DailyStat 是某一天的训练汇总，按需从历史计算，不落库
type DailyStat struct {
	Date           string `json:"date"`
	CaloriesBurned int    `json:"caloriesBurned"`
	WorkoutCount   int    `json:"workoutCount"`
	Minutes        int    `json:"minutes"`
}

// MonthlyStat 是某个自然月的训练汇总，Month 形如 2024-05
type MonthlyStat struct {
	Month          string `json:"month"`
	CaloriesBurned int    `json:"caloriesBurned"`
	WorkoutCount   int    `json:"workoutCount"`
	Minutes        int    `json:"minutes"`
}

// WeeklySummary 汇总最近 7 天
type WeeklySummary struct {
	Days            []DailyStat `json:"days"`
	CaloriesBurned  int         `json:"caloriesBurned"`
	WorkoutCount    int         `json:"workoutCount"`
	Minutes         int         `json:"minutes"`
	AverageCalories float64     `json:"averageCalories"`
}

// TotalStats 汇总全部历史
type TotalStats struct {
	TotalWorkouts int `json:"totalWorkouts"`
	TotalCalories int `json:"totalCalories"`
	TotalMinutes  int `json:"totalMinutes"`
	TotalSets     int `json:"totalSets"`
}

// WorkoutHistoryService 负责训练历史的追加与统计
// 所有读取在数据缺失或损坏时都退化为空结果，不返回错误
type WorkoutHistoryService struct {
	mu     sync.Mutex
	now    func() time.Time
	events *historyBroker
	logger *zap.Logger
}

// NewWorkoutHistoryService 构造 WorkoutHistoryService
func NewWorkoutHistoryService(logger *zap.Logger) *WorkoutHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutHistoryService{
		now:    time.Now,
		events: newHistoryBroker(),
		logger: logger,
	}
}

// WithClock 替换时间来源，主要面向测试场景。
func (s *WorkoutHistoryService) WithClock(now func() time.Time) *WorkoutHistoryService {
	if now != nil {
		s.now = now
	}
	return s
}

// Subscribe 订阅历史变更事件，返回的函数用于取消订阅
func (s *WorkoutHistoryService) Subscribe(buffer int) (<-chan HistoryEvent, func()) {
	return s.events.subscribe(buffer)
}

// Append 追加一条训练记录并持久化完整列表，随后通知订阅者。
// 未提供 Date 时使用当前时间。
func (s *WorkoutHistoryService) Append(scope userdata.Scope, entry WorkoutHistoryEntry) (WorkoutHistoryEntry, error) {
	entry.WorkoutID = strings.TrimSpace(entry.WorkoutID)
	entry.WorkoutName = strings.TrimSpace(entry.WorkoutName)
	if strings.TrimSpace(entry.Date) == "" {
		entry.Date = s.now().Format(time.RFC3339)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.History(scope)
	history = append(history, entry)
	if err := scope.Save(userdata.KeyWorkoutHistory, history); err != nil {
		return entry, fmt.Errorf("append workout history: %w", err)
	}

	metrics.WorkoutsLogged.Inc()
	// publish 不阻塞，持锁发布以保证事件顺序与写入顺序一致
	s.events.publish(HistoryEvent{Identity: scope.Identity(), Entry: entry, Total: len(history)})
	return entry, nil
}

// History 返回完整历史（按写入顺序），不存在或损坏时返回空列表
func (s *WorkoutHistoryService) History(scope userdata.Scope) []WorkoutHistoryEntry {
	var history []WorkoutHistoryEntry
	if !scope.Load(userdata.KeyWorkoutHistory, &history) || history == nil {
		return []WorkoutHistoryEntry{}
	}
	return history
}

// DailyStats 返回包含今天在内最近 days 天的逐日汇总，最早的一天在前
func (s *WorkoutHistoryService) DailyStats(scope userdata.Scope, days int) []DailyStat {
	if days <= 0 {
		return []DailyStat{}
	}

	today := normalizeToDate(s.now())
	stats := make([]DailyStat, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := formatDay(today.AddDate(0, 0, i-(days-1)))
		stats[i] = DailyStat{Date: date}
		index[date] = i
	}

	for _, entry := range s.History(scope) {
		day, ok := localDay(entry.Date, today.Location())
		if !ok {
			continue
		}
		i, ok := index[formatDay(day)]
		if !ok {
			continue
		}
		stats[i].CaloriesBurned += entry.CaloriesBurned
		stats[i].WorkoutCount++
		stats[i].Minutes += entry.Duration
	}

	return stats
}

// TodayStats 返回今天的汇总
func (s *WorkoutHistoryService) TodayStats(scope userdata.Scope) DailyStat {
	return s.DailyStats(scope, 1)[0]
}

// WeeklySummary 返回最近 7 天的逐日数据、合计以及日均消耗
func (s *WorkoutHistoryService) WeeklySummary(scope userdata.Scope) WeeklySummary {
	days := s.DailyStats(scope, 7)
	summary := WeeklySummary{Days: days}
	for _, day := range days {
		summary.CaloriesBurned += day.CaloriesBurned
		summary.WorkoutCount += day.WorkoutCount
		summary.Minutes += day.Minutes
	}
	summary.AverageCalories = float64(summary.CaloriesBurned) / float64(len(days))
	return summary
}

// MonthlyStats 返回包含本月在内最近 months 个自然月的汇总，最早的月份在前
func (s *WorkoutHistoryService) MonthlyStats(scope userdata.Scope, months int) []MonthlyStat {
	if months <= 0 {
		return []MonthlyStat{}
	}

	now := s.now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats := make([]MonthlyStat, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		month := firstOfMonth.AddDate(0, i-(months-1), 0).Format("2006-01")
		stats[i] = MonthlyStat{Month: month}
		index[month] = i
	}

	for _, entry := range s.History(scope) {
		day, ok := localDay(entry.Date, now.Location())
		if !ok {
			continue
		}
		i, ok := index[day.Format("2006-01")]
		if !ok {
			continue
		}
		stats[i].CaloriesBurned += entry.CaloriesBurned
		stats[i].WorkoutCount++
		stats[i].Minutes += entry.Duration
	}

	return stats
}

// MonthToDate 返回本月至今的汇总
func (s *WorkoutHistoryService) MonthToDate(scope userdata.Scope) MonthlyStat {
	return s.MonthlyStats(scope, 1)[0]
}

// TotalStats 返回全部历史的合计
func (s *WorkoutHistoryService) TotalStats(scope userdata.Scope) TotalStats {
	return totalsOf(s.History(scope))
}

func totalsOf(history []WorkoutHistoryEntry) TotalStats {
	totals := TotalStats{TotalWorkouts: len(history)}
	for _, entry := range history {
		totals.TotalCalories += entry.CaloriesBurned
		totals.TotalMinutes += entry.Duration
		totals.TotalSets += entry.TotalSets
	}
	return totals
}

// Streak 计算截至今天的连续训练天数。
// 最近一次训练早于昨天时返回 0；同一天多次训练只算一天；晚于今天的记录不计入。
func (s *WorkoutHistoryService) Streak(scope userdata.Scope) int {
	return streakOf(s.History(scope), s.now())
}

func streakOf(history []WorkoutHistoryEntry, now time.Time) int {
	today := normalizeToDate(now)

	seen := make(map[string]struct{}, len(history))
	days := make([]time.Time, 0, len(history))
	for _, entry := range history {
		day, ok := localDay(entry.Date, today.Location())
		if !ok || day.After(today) {
			continue
		}
		key := formatDay(day)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	if daysBetween(days[0], today) > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i], days[i-1]) != 1 {
			break
		}
		streak++
	}
	return streak
}
