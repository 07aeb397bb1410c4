package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/fitlog/internal/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlockedTitles(achievements []Achievement) []string {
	titles := []string{}
	for _, a := range achievements {
		if a.Unlocked {
			titles = append(titles, a.Title)
		}
	}
	return titles
}

func TestEvaluateAchievements(t *testing.T) {
	all := evaluateAchievements(0, 0)
	require.Len(t, all, 6)
	assert.Equal(t, "First Milestone", all[0].Title)
	assert.Equal(t, "Gym Legend", all[5].Title)
	assert.Empty(t, unlockedTitles(all))

	assert.Equal(t, []string{"First Milestone"}, unlockedTitles(evaluateAchievements(10, 0)))
	assert.Equal(t, []string{"First Milestone", "Week Warrior", "Speed Demon"}, unlockedTitles(evaluateAchievements(30, 7)))
	assert.Len(t, unlockedTitles(evaluateAchievements(100, 30)), 6)
}

func TestCheckNewlyUnlocked(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 9, 0))
	svc := NewWorkoutHistoryService(nil).WithClock(clk.Now)

	newly, err := svc.CheckNewlyUnlocked(scope)
	require.NoError(t, err)
	assert.Empty(t, newly)

	for i := 0; i < 10; i++ {
		_, err := svc.Append(scope, WorkoutHistoryEntry{WorkoutID: fmt.Sprintf("w%d", i)})
		require.NoError(t, err)
	}

	newly, err = svc.CheckNewlyUnlocked(scope)
	require.NoError(t, err)
	require.Len(t, newly, 1)
	assert.Equal(t, "First Milestone", newly[0].Title)

	newly, err = svc.CheckNewlyUnlocked(scope)
	require.NoError(t, err)
	assert.Empty(t, newly)

	var saved []string
	require.True(t, scope.Load(userdata.KeyUnlockedAchievements, &saved))
	assert.Equal(t, []string{"First Milestone"}, saved)
}

func TestCheckNewlyUnlockedOverwritesStaleTitles(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	require.NoError(t, scope.Save(userdata.KeyUnlockedAchievements, []string{"Gym Legend"}))

	svc := NewWorkoutHistoryService(nil)
	newly, err := svc.CheckNewlyUnlocked(scope)
	require.NoError(t, err)
	assert.Empty(t, newly)

	var saved []string
	require.True(t, scope.Load(userdata.KeyUnlockedAchievements, &saved))
	assert.Empty(t, saved)
}
