package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fitlog/internal/config"
	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/service"
	"github.com/fitlog/internal/storage"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultEmail    = "demo@example.com"
	defaultPassword = "demo123"
	seedDays        = 30
)

// 每 7 天中休息的那一天（按偏移量）
const restDayOffset = 3

var seedWorkouts = []struct {
	id       string
	name     string
	duration int
	calories int
	sets     int
}{
	{id: "full-body", name: "Full Body Blast", duration: 45, calories: 380, sets: 15},
	{id: "hiit", name: "HIIT Cardio", duration: 25, calories: 300, sets: 8},
	{id: "legs", name: "Leg Day", duration: 50, calories: 420, sets: 18},
	{id: "core", name: "Core Crusher", duration: 20, calories: 180, sets: 10},
}

type seedSummary struct {
	Workouts  int
	Reminders int
	Meals     int
}

// 测试数据生成器
func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	email := flag.String("email", defaultEmail, "seed account email")
	password := flag.String("password", defaultPassword, "seed account password")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	summary, err := seedDemoData(db.DB, storage.NewGormStore(db.DB), *email, *password, time.Now())
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (密码: %s)\n", db.NormalizeEmail(*email), *password)
	fmt.Printf("训练记录: %d 条\n", summary.Workouts)
	fmt.Printf("训练提醒: %d 条\n", summary.Reminders)
	fmt.Printf("用餐提醒: %d 餐\n", summary.Meals)
}

// seedDemoData 为账号写入最近 30 天的训练历史、训练提醒和用餐提醒。
// 已有历史的账号会被跳过，避免重复写入。
func seedDemoData(gdb *gorm.DB, store storage.Store, email, password string, now time.Time) (seedSummary, error) {
	email = db.NormalizeEmail(email)
	if err := db.EnsureUser(gdb, email, password); err != nil {
		return seedSummary{}, fmt.Errorf("ensure user: %w", err)
	}

	logger := zap.NewNop()
	scope := userdata.NewScope(store, email, logger)
	history := service.NewWorkoutHistoryService(logger).WithClock(func() time.Time { return now })
	reminders := service.NewWorkoutReminderService(nil, logger)
	meals := service.NewMealNotificationService(nil, logger).WithClock(func() time.Time { return now })

	var summary seedSummary
	if len(history.History(scope)) > 0 {
		fmt.Println("训练记录已存在，跳过创建")
	} else {
		for i := seedDays - 1; i >= 0; i-- {
			if i%7 == restDayOffset {
				continue
			}
			workout := seedWorkouts[i%len(seedWorkouts)]
			day := now.AddDate(0, 0, -i)
			started := time.Date(day.Year(), day.Month(), day.Day(), 7, 30, 0, 0, day.Location())
			if started.After(now) {
				started = now
			}
			_, err := history.Append(scope, service.WorkoutHistoryEntry{
				WorkoutID:          workout.id,
				WorkoutName:        workout.name,
				Date:               started.Format(time.RFC3339),
				Duration:           workout.duration,
				CaloriesBurned:     workout.calories,
				ExercisesCompleted: workout.sets / 3,
				TotalSets:          workout.sets,
			})
			if err != nil {
				return summary, err
			}
			summary.Workouts++
		}
		fmt.Println("✅ 训练记录创建完成")
	}

	for _, reminder := range []service.WorkoutReminder{
		{WorkoutID: "full-body", WorkoutName: "Full Body Blast", Time: "07:00", Enabled: true, Days: []int{1, 3, 5}},
		{WorkoutID: "hiit", WorkoutName: "HIIT Cardio", Time: "18:30", Enabled: true, Days: []int{2, 4}},
	} {
		if _, err := reminders.SaveReminder(scope, reminder); err != nil {
			return summary, err
		}
		summary.Reminders++
	}
	fmt.Println("✅ 训练提醒创建完成")

	plan := []service.MealNotification{
		{MealName: "Breakfast", Time: "7:30 AM", Calories: 450},
		{MealName: "Lunch", Time: "12:30 PM", Calories: 650},
		{MealName: "Dinner", Time: "7:00 PM", Calories: 600},
	}
	if err := scope.Save(userdata.KeyScheduledMealPlan, service.MealSchedule{
		PlanID:      "balanced",
		Meals:       plan,
		ScheduledAt: now.Format(time.RFC3339),
	}); err != nil {
		return summary, err
	}
	if active := meals.Active(scope); active != nil {
		summary.Meals = len(active.Meals)
	}
	if err := scope.SaveRaw(userdata.KeyActiveDietPlan, "balanced"); err != nil {
		return summary, err
	}
	fmt.Println("✅ 用餐提醒创建完成")

	return summary, nil
}
