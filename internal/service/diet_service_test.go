package service

import (
	"testing"
	"time"

	"github.com/fitlog/internal/userdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDietActivePlanIsRawString(t *testing.T) {
	scope, store := newTestScope(t, testIdentity)
	svc := NewDietService()

	_, ok := svc.ActivePlan(scope)
	assert.False(t, ok)

	require.NoError(t, svc.Activate(scope, "keto-7"))
	plan, ok := svc.ActivePlan(scope)
	require.True(t, ok)
	assert.Equal(t, "keto-7", plan)

	raw, _, err := store.Get(testIdentity + "_" + userdata.KeyActiveDietPlan)
	require.NoError(t, err)
	assert.Equal(t, "keto-7", raw)

	assert.Error(t, svc.Activate(scope, "  "))
}

func TestDietToggleMeal(t *testing.T) {
	scope, _ := newTestScope(t, testIdentity)
	clk := newClock(at(2024, time.May, 20, 9, 0))
	svc := NewDietService().WithClock(clk.Now)

	meals, done, err := svc.ToggleMeal(scope, "Breakfast")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, []string{"Breakfast"}, meals)

	_, _, err = svc.ToggleMeal(scope, "Lunch")
	require.NoError(t, err)

	meals, done, err = svc.ToggleMeal(scope, "Breakfast")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []string{"Lunch"}, meals)

	assert.Equal(t, []string{"Lunch"}, svc.CompletedMeals(scope, clk.Now()))
	assert.Empty(t, svc.CompletedMeals(scope, clk.Now().AddDate(0, 0, -1)))
}
