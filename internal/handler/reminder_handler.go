package handler

import (
	"errors"
	"net/http"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reminderPayload struct {
	WorkoutName string `json:"workoutName"`
	Time        string `json:"time"`
	Enabled     bool   `json:"enabled"`
	Days        []int  `json:"days"`
}

// ListReminders 返回全部训练提醒
func (a *API) ListReminders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reminders": a.reminders.Reminders(a.scope(c))})
}

// GetReminder 返回单个训练的提醒
func (a *API) GetReminder(c *gin.Context) {
	reminder, ok := a.reminders.Reminder(a.scope(c), c.Param("workoutId"))
	if !ok {
		respondError(c, http.StatusNotFound, "reminder not found")
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// SaveReminder 新增或替换训练提醒
func (a *API) SaveReminder(c *gin.Context) {
	var payload reminderPayload
	if !bindJSON(c, &payload, "invalid reminder payload") {
		return
	}

	saved, err := a.reminders.SaveReminder(a.scope(c), service.WorkoutReminder{
		WorkoutID:   c.Param("workoutId"),
		WorkoutName: payload.WorkoutName,
		Time:        payload.Time,
		Enabled:     payload.Enabled,
		Days:        payload.Days,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidReminder) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error("save reminder failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save reminder")
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteReminder 删除训练提醒
func (a *API) DeleteReminder(c *gin.Context) {
	if err := a.reminders.DeleteReminder(a.scope(c), c.Param("workoutId")); err != nil {
		a.logger.Error("delete reminder failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete reminder")
		return
	}
	c.Status(http.StatusNoContent)
}
