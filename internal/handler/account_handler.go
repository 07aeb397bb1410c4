package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fitlog/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup 注册账号并登录
func (a *API) Signup(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "invalid signup payload") {
		return
	}

	user, err := a.accounts.Signup(payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidPassword):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			a.logger.Error("signup failed", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "signup failed")
		}
		return
	}

	if !a.saveSession(c, user.Email) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": user.Email})
}

// Login 校验凭据并写入会话
func (a *API) Login(c *gin.Context) {
	var payload credentialsPayload
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	user, err := a.accounts.Login(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		a.logger.Error("login failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	if !a.saveSession(c, user.Email) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": user.Email})
}

// Logout 清除会话与进程级身份
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		a.logger.Warn("clear session failed", zap.Error(err))
	}
	if err := a.accounts.Logout(); err != nil {
		a.logger.Error("logout failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) saveSession(c *gin.Context, email string) bool {
	session := sessions.Default(c)
	session.Set(sessionEmailKey, email)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "session save failed")
		return false
	}
	return true
}

// AuthRequired 是一个简单的认证中间件，未登录时返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email, _ := session.Get(sessionEmailKey).(string)
		email = strings.TrimSpace(email)
		if email == "" {
			respondError(c, http.StatusUnauthorized, "login required")
			c.Abort()
			return
		}
		c.Set(identityContextKey, email)
		c.Next()
	}
}
