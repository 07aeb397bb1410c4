package router

import (
	"net/http"
	"time"

	"github.com/fitlog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionName = "fitlog_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	{
		public.POST("/signup", api.Signup)
		public.POST("/login", api.Login)
		public.POST("/logout", api.Logout)
	}

	// 需要登录的接口
	auth := r.Group("/api")
	auth.Use(handler.AuthRequired())
	{
		auth.GET("/history", api.ListHistory)
		auth.POST("/history", api.AppendHistory)

		stats := auth.Group("/stats")
		{
			stats.GET("/daily", api.DailyStats)
			stats.GET("/today", api.TodayStats)
			stats.GET("/totals", api.TotalStats)
			stats.GET("/weekly", api.WeeklySummary)
			stats.GET("/monthly", api.MonthlyStats)
			stats.GET("/streak", api.Streak)
		}

		auth.GET("/achievements", api.ListAchievements)
		auth.POST("/achievements/check", api.CheckAchievements)

		auth.GET("/meal-notifications", api.GetMealNotifications)
		auth.PUT("/meal-notifications", api.ScheduleMealNotifications)
		auth.DELETE("/meal-notifications", api.CancelMealNotifications)

		auth.GET("/reminders", api.ListReminders)
		auth.GET("/reminders/:workoutId", api.GetReminder)
		auth.PUT("/reminders/:workoutId", api.SaveReminder)
		auth.DELETE("/reminders/:workoutId", api.DeleteReminder)

		auth.GET("/diet/active", api.GetActivePlan)
		auth.PUT("/diet/active", api.SetActivePlan)
		auth.GET("/diet/meals", api.CompletedMeals)
		auth.POST("/diet/meals/toggle", api.ToggleMeal)

		auth.POST("/notifications/permission", api.RequestNotificationPermission)
		auth.GET("/notifications/stream", api.StreamNotifications)
	}

	return r
}

// requestLogger 以结构化日志记录每个请求
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
