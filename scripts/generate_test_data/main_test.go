package main

import (
	"testing"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/service"
	"github.com/fitlog/internal/storage"
	"github.com/fitlog/internal/userdata"
)

func TestSeedDemoData(t *testing.T) {
	gdb, err := db.Open("file:seed-demo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	store := storage.NewGormStore(gdb)
	now := time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC)

	summary, err := seedDemoData(gdb, store, "Demo@Example.com", "demo123", now)
	if err != nil {
		t.Fatalf("seedDemoData returned error: %v", err)
	}
	if summary.Workouts != 26 {
		t.Fatalf("expected 26 workouts, got %d", summary.Workouts)
	}
	if summary.Reminders != 2 || summary.Meals != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	scope := userdata.NewScope(store, "demo@example.com", nil)
	history := service.NewWorkoutHistoryService(nil).WithClock(func() time.Time { return now })
	if streak := history.Streak(scope); streak != 3 {
		t.Fatalf("expected streak 3, got %d", streak)
	}

	again, err := seedDemoData(gdb, store, "demo@example.com", "demo123", now)
	if err != nil {
		t.Fatalf("second seed returned error: %v", err)
	}
	if again.Workouts != 0 {
		t.Fatalf("expected existing history to be kept, got %d new workouts", again.Workouts)
	}
	if got := len(history.History(scope)); got != 26 {
		t.Fatalf("expected 26 stored workouts, got %d", got)
	}

	var count int64
	if err := gdb.Model(&db.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one user, got %d", count)
	}
}
