// Package userdata 负责按用户隔离的存储键、会话身份以及旧数据迁移。
package userdata

import "time"

// 逻辑键，真实存储键为 {identity}_{logicalKey}。
const (
	KeyWorkoutHistory       = "workoutHistory"
	KeyUnlockedAchievements = "unlockedAchievements"
	KeyActiveDietPlan       = "activeDietPlan"
	KeyScheduledMealPlan    = "scheduledMealPlan"
	KeyWorkoutReminders     = "workoutReminders"
)

// 按天分片的键前缀，后缀为 YYYY-MM-DD。
const (
	PrefixMeals                = "meals-"
	PrefixSentNotifications    = "sentNotifications-"
	PrefixSentWorkoutReminders = "sentWorkoutReminders-"
)

// 不带用户前缀的全局键。
const (
	KeyUserEmail          = "userEmail"
	KeyLoggedIn           = "isLoggedIn"
	KeyGlobalDataMigrated = "globalDataMigrated"
)

// DateLayout 是所有按天键与统计记录使用的日期格式。
const DateLayout = "2006-01-02"

// legacyKeys 是多用户改造之前写入的全局键。
var legacyKeys = []string{
	KeyWorkoutHistory,
	KeyUnlockedAchievements,
	KeyActiveDietPlan,
	KeyScheduledMealPlan,
	KeyWorkoutReminders,
}

// DayKey 拼接按天分片的逻辑键，例如 meals-2024-05-01。
func DayKey(prefix string, day time.Time) string {
	return prefix + day.Format(DateLayout)
}
