package service

import (
	"fmt"

	"github.com/fitlog/internal/userdata"
)

// Achievement 是基于阈值的徽章
type Achievement struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type achievementMetric int

const (
	metricTotalWorkouts achievementMetric = iota
	metricStreak
)

type achievementRule struct {
	icon        string
	title       string
	description string
	metric      achievementMetric
	threshold   int
}

// achievementCatalog 顺序即展示顺序
var achievementCatalog = []achievementRule{
	{icon: "🏆", title: "First Milestone", description: "10 workouts completed", metric: metricTotalWorkouts, threshold: 10},
	{icon: "💪", title: "Strength Beast", description: "50 strength workouts", metric: metricTotalWorkouts, threshold: 50},
	{icon: "🔥", title: "Week Warrior", description: "7-day streak", metric: metricStreak, threshold: 7},
	{icon: "⚡", title: "Speed Demon", description: "Complete 30+ workouts", metric: metricTotalWorkouts, threshold: 30},
	{icon: "🎯", title: "Perfect Month", description: "30-day streak", metric: metricStreak, threshold: 30},
	{icon: "👑", title: "Gym Legend", description: "100 workouts", metric: metricTotalWorkouts, threshold: 100},
}

func evaluateAchievements(totalWorkouts, streak int) []Achievement {
	achievements := make([]Achievement, 0, len(achievementCatalog))
	for _, rule := range achievementCatalog {
		value := totalWorkouts
		if rule.metric == metricStreak {
			value = streak
		}
		achievements = append(achievements, Achievement{
			Icon:        rule.icon,
			Title:       rule.title,
			Description: rule.description,
			Unlocked:    value >= rule.threshold,
		})
	}
	return achievements
}

// Achievements 根据当前总次数与连续天数评估全部徽章
func (s *WorkoutHistoryService) Achievements(scope userdata.Scope) []Achievement {
	history := s.History(scope)
	return evaluateAchievements(len(history), streakOf(history, s.now()))
}

// CheckNewlyUnlocked 对比上次保存的已解锁标题，返回新解锁的徽章。
// 无论是否有新解锁，都会用当前已解锁集合覆盖保存的记录。
func (s *WorkoutHistoryService) CheckNewlyUnlocked(scope userdata.Scope) ([]Achievement, error) {
	var previous []string
	if !scope.Load(userdata.KeyUnlockedAchievements, &previous) {
		previous = nil
	}
	known := make(map[string]struct{}, len(previous))
	for _, title := range previous {
		known[title] = struct{}{}
	}

	current := s.Achievements(scope)
	unlocked := make([]string, 0, len(current))
	newlyUnlocked := make([]Achievement, 0)
	for _, achievement := range current {
		if !achievement.Unlocked {
			continue
		}
		unlocked = append(unlocked, achievement.Title)
		if _, ok := known[achievement.Title]; !ok {
			newlyUnlocked = append(newlyUnlocked, achievement)
		}
	}

	if err := scope.Save(userdata.KeyUnlockedAchievements, unlocked); err != nil {
		return nil, fmt.Errorf("save unlocked achievements: %w", err)
	}
	return newlyUnlocked, nil
}
