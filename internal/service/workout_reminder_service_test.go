package service

import (
	"context"
	"testing"
	"time"

	"github.com/fitlog/internal/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var weekdays = []int{1, 2, 3, 4, 5}

func TestSaveReminderUpserts(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	svc := NewWorkoutReminderService(nil, nil)

	_, err := svc.SaveReminder(scope, WorkoutReminder{WorkoutID: "w1", WorkoutName: "Legs", Time: "07:00", Enabled: true, Days: weekdays})
	require.NoError(t, err)
	_, err = svc.SaveReminder(scope, WorkoutReminder{WorkoutID: "w2", WorkoutName: "Arms", Time: "18:00", Enabled: true})
	require.NoError(t, err)
	_, err = svc.SaveReminder(scope, WorkoutReminder{WorkoutID: "w1", WorkoutName: "Legs", Time: "08:30", Enabled: false, Days: weekdays})
	require.NoError(t, err)

	reminders := svc.Reminders(scope)
	require.Len(t, reminders, 2)
	assert.Equal(t, "w1", reminders[0].WorkoutID)
	assert.Equal(t, "08:30", reminders[0].Time)
	assert.False(t, reminders[0].Enabled)
	assert.Equal(t, []int{}, reminders[1].Days)

	reminder, ok := svc.Reminder(scope, "w2")
	require.True(t, ok)
	assert.Equal(t, "Arms", reminder.WorkoutName)

	require.NoError(t, svc.DeleteReminder(scope, "w1"))
	require.NoError(t, svc.DeleteReminder(scope, "missing"))
	_, ok = svc.Reminder(scope, "w1")
	assert.False(t, ok)
	assert.Len(t, svc.Reminders(scope), 1)
}

func TestSaveReminderValidates(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	svc := NewWorkoutReminderService(nil, nil)

	invalid := []WorkoutReminder{
		{WorkoutID: "", Time: "07:00"},
		{WorkoutID: "w1", Time: "7am"},
		{WorkoutID: "w1", Time: "07:00", Days: []int{7}},
	}
	for _, reminder := range invalid {
		_, err := svc.SaveReminder(scope, reminder)
		assert.ErrorIs(t, err, ErrInvalidReminder)
	}
	assert.Empty(t, svc.Reminders(scope))
}

func TestReminderFiresOnScheduledWeekdays(t *testing.T) {
	ctx := context.Background()
	scope, _ := newTestScope(t, testIdentity)
	platform := grantedPlatform()
	clk := newClock(at(2024, time.May, 20, 7, 3)) // 周一
	svc := NewWorkoutReminderService(platform, nil).WithClock(clk.Now)

	_, err := svc.SaveReminder(scope, WorkoutReminder{WorkoutID: "w1", WorkoutName: "Legs", Time: "07:00", Enabled: true, Days: weekdays})
	require.NoError(t, err)

	fired := svc.CheckDue(ctx, scope)
	require.Len(t, fired, 1)
	assert.Equal(t, "💪 Time to Work Out!", fired[0].Title)
	assert.Equal(t, "Legs\nYour scheduled workout is starting now. Let's crush it!", fired[0].Body)
	assert.Equal(t, "workout-w1", fired[0].Tag)

	assert.Empty(t, svc.CheckDue(ctx, scope))

	for _, day := range []int{25, 26} {
		clk.Set(at(2024, time.May, day, 7, 0))
		assert.Empty(t, svc.CheckDue(ctx, scope), "weekend day %d", day)
	}

	clk.Set(at(2024, time.May, 27, 7, 0))
	assert.Len(t, svc.CheckDue(ctx, scope), 1)
	assert.Len(t, platform.Shown(), 2)
}

func TestReminderDisabledNeverFires(t *testing.T) {
	ctx := context.Background()
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 7, 0))
	svc := NewWorkoutReminderService(grantedPlatform(), nil).WithClock(clk.Now)

	_, err := svc.SaveReminder(scope, WorkoutReminder{WorkoutID: "w1", Time: "07:00", Enabled: false, Days: weekdays})
	require.NoError(t, err)
	assert.Empty(t, svc.CheckDue(ctx, scope))
}

func TestReminderCheckDuePrunesLedger(t *testing.T) {
	scope, store := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 7, 0))
	svc := NewWorkoutReminderService(nil, nil).WithClock(clk.Now).WithRetentionDays(3)

	for _, day := range []string{"2024-05-16", "2024-05-17"} {
		require.NoError(t, store.Set(scope.Key(userdata.PrefixSentWorkoutReminders+day), `["w1"]`))
	}

	svc.CheckDue(context.Background(), scope)

	keys, err := store.Keys(scope.Key(userdata.PrefixSentWorkoutReminders))
	require.NoError(t, err)
	assert.Equal(t, []string{scope.Key(userdata.PrefixSentWorkoutReminders + "2024-05-17")}, keys)
}
