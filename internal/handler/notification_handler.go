package handler

import (
	"io"
	"net/http"

	"github.com/fitlog/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamBuffer = 16

type permissionPayload struct {
	Granted *bool `json:"granted"`
}

// RequestNotificationPermission 记录用户对通知授权提示的回答。
// 一旦做出决定，之后的请求不会改变结果。
func (a *API) RequestNotificationPermission(c *gin.Context) {
	var payload permissionPayload
	if !bindJSON(c, &payload, "invalid permission payload") {
		return
	}
	if payload.Granted == nil {
		respondError(c, http.StatusBadRequest, "granted is required")
		return
	}

	ctx := notify.WithDecision(c.Request.Context(), *payload.Granted)
	granted := a.meals.RequestPermission(ctx)
	c.JSON(http.StatusOK, gin.H{
		"granted":    granted,
		"permission": a.hub.Permission(),
	})
}

// StreamNotifications 以 SSE 推送当前用户的通知以及训练历史变更
func (a *API) StreamNotifications(c *gin.Context) {
	email := identity(c)

	sub, cancelSub := a.hub.Subscribe(email, streamBuffer)
	defer cancelSub()
	events, cancelEvents := a.history.Subscribe(streamBuffer)
	defer cancelEvents()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	a.logger.Debug("notification stream opened", zap.String("identity", email), zap.String("subscriber", sub.ID))
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case event, ok := <-events:
			if !ok {
				return false
			}
			if event.Identity == email {
				c.SSEvent("history", event)
			}
			return true
		}
	})
	a.logger.Debug("notification stream closed", zap.String("identity", email))
}
