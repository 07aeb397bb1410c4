package handler

import (
	"net/http"

	"github.com/fitlog/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultStatsDays   = 7
	maxStatsDays       = 366
	defaultStatsMonths = 6
	maxStatsMonths     = 36
)

// ListHistory 返回完整训练历史
func (a *API) ListHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": a.history.History(a.scope(c))})
}

// AppendHistory 记录一次完成的训练
func (a *API) AppendHistory(c *gin.Context) {
	var entry service.WorkoutHistoryEntry
	if !bindJSON(c, &entry, "invalid workout payload") {
		return
	}
	if entry.WorkoutID == "" {
		respondError(c, http.StatusBadRequest, "workoutId is required")
		return
	}

	saved, err := a.history.Append(a.scope(c), entry)
	if err != nil {
		a.logger.Error("append workout history failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save workout")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// DailyStats 返回最近 N 天的逐日汇总
func (a *API) DailyStats(c *gin.Context) {
	days, err := parseIntQuery(c, "days", defaultStatsDays, 1, maxStatsDays)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": a.history.DailyStats(a.scope(c), days)})
}

// TodayStats 返回今天的汇总
func (a *API) TodayStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.history.TodayStats(a.scope(c)))
}

// TotalStats 返回全部历史合计
func (a *API) TotalStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.history.TotalStats(a.scope(c)))
}

// WeeklySummary 返回最近 7 天汇总
func (a *API) WeeklySummary(c *gin.Context) {
	c.JSON(http.StatusOK, a.history.WeeklySummary(a.scope(c)))
}

// MonthlyStats 返回最近 N 个自然月汇总
func (a *API) MonthlyStats(c *gin.Context) {
	months, err := parseIntQuery(c, "months", defaultStatsMonths, 1, maxStatsMonths)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": a.history.MonthlyStats(a.scope(c), months)})
}

// Streak 返回连续训练天数
func (a *API) Streak(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streak": a.history.Streak(a.scope(c))})
}

// ListAchievements 返回全部徽章及解锁状态
func (a *API) ListAchievements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"achievements": a.history.Achievements(a.scope(c))})
}

// CheckAchievements 返回自上次检查以来新解锁的徽章
func (a *API) CheckAchievements(c *gin.Context) {
	newly, err := a.history.CheckNewlyUnlocked(a.scope(c))
	if err != nil {
		a.logger.Error("check achievements failed", zap.String("identity", identity(c)), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to check achievements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"newlyUnlocked": newly})
}
