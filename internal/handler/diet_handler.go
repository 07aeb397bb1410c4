package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/fitlog/internal/userdata"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type activePlanPayload struct {
	PlanID string `json:"planId"`
}

type toggleMealPayload struct {
	MealName string `json:"mealName"`
}

// GetActivePlan 返回当前启用的饮食计划
func (a *API) GetActivePlan(c *gin.Context) {
	planID, ok := a.diet.ActivePlan(a.scope(c))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"planId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"planId": planID})
}

// SetActivePlan 启用饮食计划
func (a *API) SetActivePlan(c *gin.Context) {
	var payload activePlanPayload
	if !bindJSON(c, &payload, "invalid diet plan payload") {
		return
	}
	if strings.TrimSpace(payload.PlanID) == "" {
		respondError(c, http.StatusBadRequest, "planId is required")
		return
	}
	if err := a.diet.Activate(a.scope(c), payload.PlanID); err != nil {
		a.logger.Error("activate diet plan failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to activate diet plan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"planId": strings.TrimSpace(payload.PlanID)})
}

// CompletedMeals 返回某天已完成的餐次，date 缺省为今天
func (a *API) CompletedMeals(c *gin.Context) {
	day := time.Now()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.ParseInLocation(userdata.DateLayout, raw, time.Local)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid date")
			return
		}
		day = parsed
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  day.Format(userdata.DateLayout),
		"meals": a.diet.CompletedMeals(a.scope(c), day),
	})
}

// ToggleMeal 切换今天某一餐的完成状态
func (a *API) ToggleMeal(c *gin.Context) {
	var payload toggleMealPayload
	if !bindJSON(c, &payload, "invalid meal payload") {
		return
	}
	if strings.TrimSpace(payload.MealName) == "" {
		respondError(c, http.StatusBadRequest, "mealName is required")
		return
	}

	meals, completed, err := a.diet.ToggleMeal(a.scope(c), payload.MealName)
	if err != nil {
		a.logger.Error("toggle meal failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to toggle meal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals, "completed": completed})
}
