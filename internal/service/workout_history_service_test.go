package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fitlog/internal/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func entryOn(day time.Time, calories int) WorkoutHistoryEntry {
	return WorkoutHistoryEntry{
		WorkoutID:      "w1",
		WorkoutName:    "Full Body",
		Date:           day.Format(time.RFC3339),
		Duration:       30,
		CaloriesBurned: calories,
		TotalSets:      12,
	}
}

func TestStreak(t *testing.T) {
	now := at(2024, time.May, 20, 18, 0)
	today := at(2024, time.May, 20, 9, 0)

	tests := []struct {
		name    string
		history []WorkoutHistoryEntry
		want    int
	}{
		{name: "empty", history: nil, want: 0},
		{name: "only today", history: []WorkoutHistoryEntry{entryOn(today, 100)}, want: 1},
		{name: "stale", history: []WorkoutHistoryEntry{entryOn(today.AddDate(0, 0, -3), 100)}, want: 0},
		{
			name: "three days ending today",
			history: []WorkoutHistoryEntry{
				entryOn(today.AddDate(0, 0, -2), 100),
				entryOn(today.AddDate(0, 0, -1), 100),
				entryOn(today, 100),
			},
			want: 3,
		},
		{
			name: "two days ending yesterday",
			history: []WorkoutHistoryEntry{
				entryOn(today.AddDate(0, 0, -2), 100),
				entryOn(today.AddDate(0, 0, -1), 100),
			},
			want: 2,
		},
		{
			name: "same day counted once",
			history: []WorkoutHistoryEntry{
				entryOn(today, 100),
				entryOn(today.Add(2*time.Hour), 100),
				entryOn(today.AddDate(0, 0, -1), 100),
			},
			want: 2,
		},
		{
			name: "gap breaks streak",
			history: []WorkoutHistoryEntry{
				entryOn(today.AddDate(0, 0, -3), 100),
				entryOn(today.AddDate(0, 0, -1), 100),
				entryOn(today, 100),
			},
			want: 2,
		},
		{
			name: "future entries ignored",
			history: []WorkoutHistoryEntry{
				entryOn(today.AddDate(0, 0, 2), 100),
				entryOn(today, 100),
			},
			want: 1,
		},
		{
			name:    "unparseable date ignored",
			history: []WorkoutHistoryEntry{{Date: "yesterday"}, entryOn(today, 100)},
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streakOf(tt.history, now))
		})
	}
}

func TestWorkoutHistoryAppendFillsDate(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 7, 30))
	svc := NewWorkoutHistoryService(zaptest.NewLogger(t)).WithClock(clk.Now)

	saved, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: " w1 ", WorkoutName: "Legs", Duration: 20})
	require.NoError(t, err)
	assert.Equal(t, "w1", saved.WorkoutID)
	assert.Equal(t, "2024-05-20T07:30:00Z", saved.Date)

	history := svc.History(scope)
	require.Len(t, history, 1)
	assert.Equal(t, saved, history[0])
}

func TestWorkoutHistoryMalformedIsEmpty(t *testing.T) {
	scope, store := newTestScope(t, testIdentity)
	require.NoError(t, store.Set(scope.Key(userdata.KeyWorkoutHistory), "{not json"))

	svc := NewWorkoutHistoryService(nil)
	assert.Empty(t, svc.History(scope))
	assert.Equal(t, 0, svc.Streak(scope))
	assert.Equal(t, TotalStats{}, svc.TotalStats(scope))
}

func TestDailyStatsShape(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 12, 0))
	svc := NewWorkoutHistoryService(nil).WithClock(clk.Now)

	_, err := svc.Append(scope, entryOn(at(2024, time.May, 20, 8, 0), 300))
	require.NoError(t, err)
	_, err = svc.Append(scope, entryOn(at(2024, time.May, 10, 8, 0), 999))
	require.NoError(t, err)

	stats := svc.DailyStats(scope, 7)
	require.Len(t, stats, 7)
	assert.Equal(t, "2024-05-14", stats[0].Date)
	assert.Equal(t, "2024-05-20", stats[6].Date)
	for _, day := range stats[:6] {
		assert.Zero(t, day.WorkoutCount, day.Date)
	}
	assert.Equal(t, DailyStat{Date: "2024-05-20", CaloriesBurned: 300, WorkoutCount: 1, Minutes: 30}, stats[6])

	assert.Empty(t, svc.DailyStats(scope, 0))
	assert.Equal(t, stats[6], svc.TodayStats(scope))
}

func TestWorkoutHistoryScenario(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 19, 9, 0))
	svc := NewWorkoutHistoryService(nil).WithClock(clk.Now)

	_, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "a", CaloriesBurned: 300, Duration: 40})
	require.NoError(t, err)

	clk.Set(at(2024, time.May, 20, 9, 0))
	_, err = svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "b", CaloriesBurned: 250, Duration: 30})
	require.NoError(t, err)
	_, err = svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "c", CaloriesBurned: 400, Duration: 50})
	require.NoError(t, err)

	assert.Equal(t, 2, svc.Streak(scope))

	today := svc.TodayStats(scope)
	assert.Equal(t, 650, today.CaloriesBurned)
	assert.Equal(t, 2, today.WorkoutCount)

	assert.Equal(t, TotalStats{TotalWorkouts: 3, TotalCalories: 950, TotalMinutes: 120}, svc.TotalStats(scope))

	weekly := svc.WeeklySummary(scope)
	assert.Equal(t, 950, weekly.CaloriesBurned)
	assert.InDelta(t, 950.0/7, weekly.AverageCalories, 0.001)

	month := svc.MonthToDate(scope)
	assert.Equal(t, "2024-05", month.Month)
	assert.Equal(t, 3, month.WorkoutCount)
}

func TestMonthlyStatsAcrossYear(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.January, 15, 9, 0))
	svc := NewWorkoutHistoryService(nil).WithClock(clk.Now)

	_, err := svc.Append(scope, entryOn(at(2023, time.December, 31, 9, 0), 200))
	require.NoError(t, err)

	months := svc.MonthlyStats(scope, 3)
	require.Len(t, months, 3)
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01"}, []string{months[0].Month, months[1].Month, months[2].Month})
	assert.Equal(t, 200, months[1].CaloriesBurned)
	assert.Zero(t, months[2].WorkoutCount)
}

func TestHistoryEventsPublished(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	svc := NewWorkoutHistoryService(nil)

	events, cancel := svc.Subscribe(2)
	defer cancel()

	_, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "a"})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, testIdentity, event.Identity)
		assert.Equal(t, "a", event.Entry.WorkoutID)
		assert.Equal(t, 1, event.Total)
	case <-time.After(time.Second):
		t.Fatal("expected history event")
	}

	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestHistoryIsolatedPerIdentity(t *testing.T) {
	alice, store := newTestScope(t, testIdentity)
	bob := userdata.NewScope(store, "bob@example.com", nil)
	svc := NewWorkoutHistoryService(nil)

	_, err := svc.Append(alice, WorkoutHistoryEntry{WorkoutID: "a"})
	require.NoError(t, err)

	assert.Len(t, svc.History(alice), 1)
	assert.Empty(t, svc.History(bob))
}

func TestHistoryUsesLocalCalendarDay(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	utcMinus5 := time.FixedZone("UTC-5", -5*3600)
	clk := newClock(time.Date(2024, time.May, 20, 21, 0, 0, 0, utcMinus5))
	svc := NewWorkoutHistoryService(nil).WithClock(clk.Now)

	// 2024-05-21T00:30Z 在本地仍是 05-20 晚上
	_, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "late", Date: "2024-05-21T00:30:00Z", CaloriesBurned: 300, Duration: 30})
	require.NoError(t, err)

	stats := svc.DailyStats(scope, 2)
	require.Len(t, stats, 2)
	assert.Equal(t, DailyStat{Date: "2024-05-19"}, stats[0])
	assert.Equal(t, DailyStat{Date: "2024-05-20", CaloriesBurned: 300, WorkoutCount: 1, Minutes: 30}, stats[1])
	assert.Equal(t, 1, svc.Streak(scope))

	// 2024-05-20T03:00Z 在本地是 05-19
	_, err = svc.Append(scope, WorkoutHistoryEntry{WorkoutID: "early", Date: "2024-05-20T03:00:00Z", CaloriesBurned: 100, Duration: 10})
	require.NoError(t, err)

	stats = svc.DailyStats(scope, 2)
	assert.Equal(t, 100, stats[0].CaloriesBurned)
	assert.Equal(t, 300, stats[1].CaloriesBurned)
	assert.Equal(t, 2, svc.Streak(scope))
}

func TestStoredNullIsEmptyList(t *testing.T) {
	scope, store := newTestScope(t, testIdentity)
	day := at(2024, time.May, 20, 9, 0)
	for _, key := range []string{
		userdata.KeyWorkoutHistory,
		userdata.KeyWorkoutReminders,
		userdata.DayKey(userdata.PrefixMeals, day),
	} {
		require.NoError(t, store.Set(scope.Key(key), "null"))
	}

	history := NewWorkoutHistoryService(nil).History(scope)
	require.NotNil(t, history)
	assert.Empty(t, history)

	reminders := NewWorkoutReminderService(nil, nil).Reminders(scope)
	require.NotNil(t, reminders)
	assert.Empty(t, reminders)

	meals := NewDietService().CompletedMeals(scope, day)
	require.NotNil(t, meals)
	assert.Empty(t, meals)

	encoded, err := json.Marshal(map[string]any{"history": history})
	require.NoError(t, err)
	assert.JSONEq(t, `{"history":[]}`, string(encoded))
}

func TestHistoryEventsFollowAppendOrder(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	svc := NewWorkoutHistoryService(nil)

	const writers, perWriter = 8, 25
	events, cancel := svc.Subscribe(writers * perWriter)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: fmt.Sprintf("w%d-%d", w, i)})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	history := svc.History(scope)
	require.Len(t, history, writers*perWriter)
	require.Len(t, events, writers*perWriter)
	for i := range history {
		event := <-events
		assert.Equal(t, i+1, event.Total)
		assert.Equal(t, history[i].WorkoutID, event.Entry.WorkoutID)
	}
}
