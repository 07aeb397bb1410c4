package handler

import (
	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/service"
	"github.com/fitlog/internal/storage"
	"github.com/fitlog/internal/userdata"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionEmailKey    = "email"
	identityContextKey = "__identity"
)

// Dependencies 是构造 API 所需的服务集合
type Dependencies struct {
	Store     storage.Store
	Accounts  *service.AccountService
	History   *service.WorkoutHistoryService
	Meals     *service.MealNotificationService
	Reminders *service.WorkoutReminderService
	Diet      *service.DietService
	Hub       *notify.Hub
	Logger    *zap.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store     storage.Store
	accounts  *service.AccountService
	history   *service.WorkoutHistoryService
	meals     *service.MealNotificationService
	reminders *service.WorkoutReminderService
	diet      *service.DietService
	hub       *notify.Hub
	logger    *zap.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		store:     deps.Store,
		accounts:  deps.Accounts,
		history:   deps.History,
		meals:     deps.Meals,
		reminders: deps.Reminders,
		diet:      deps.Diet,
		hub:       deps.Hub,
		logger:    logger,
	}
}

// identity 返回 AuthRequired 写入的当前身份
func identity(c *gin.Context) string {
	return c.GetString(identityContextKey)
}

// scope 把请求的身份映射为数据命名空间
func (a *API) scope(c *gin.Context) userdata.Scope {
	return userdata.NewScope(a.store, identity(c), a.logger)
}
