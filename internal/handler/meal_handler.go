package handler

import (
	"net/http"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mealSchedulePayload struct {
	PlanID string                     `json:"planId"`
	Meals  []service.MealNotification `json:"meals"`
}

// GetMealNotifications 返回当前用餐提醒计划，未计划时 schedule 为 null
func (a *API) GetMealNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schedule": a.meals.Active(a.scope(c))})
}

// ScheduleMealNotifications 整体替换用餐提醒计划
func (a *API) ScheduleMealNotifications(c *gin.Context) {
	var payload mealSchedulePayload
	if !bindJSON(c, &payload, "invalid meal schedule payload") {
		return
	}
	for _, meal := range payload.Meals {
		if _, err := service.ParseMealTime(meal.Time); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	schedule, err := a.meals.Schedule(c.Request.Context(), a.scope(c), payload.PlanID, payload.Meals)
	if err != nil {
		a.logger.Error("schedule meal notifications failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to schedule meal notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// CancelMealNotifications 取消用餐提醒
func (a *API) CancelMealNotifications(c *gin.Context) {
	if err := a.meals.Cancel(a.scope(c)); err != nil {
		a.logger.Error("cancel meal notifications failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to cancel meal notifications")
		return
	}
	c.Status(http.StatusNoContent)
}
