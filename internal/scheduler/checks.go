package scheduler

import (
	"context"
	"time"

	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/userdata"
	"go.uber.org/zap"
)

// DueChecker 是按命名空间执行到点检查的服务
type DueChecker interface {
	CheckDue(ctx context.Context, scope userdata.Scope) []notify.Notification
}

// SessionCheck 在每次触发时重新读取当前会话身份，再调用 checker。
// 没有身份时以全局命名空间运行。
func SessionCheck(session *userdata.Session, checker DueChecker, logger *zap.Logger) CheckFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, now time.Time) {
		scope := session.Scope()
		fired := checker.CheckDue(ctx, scope)
		if len(fired) > 0 {
			logger.Debug("due check fired notifications",
				zap.String("identity", scope.Identity()),
				zap.Int("count", len(fired)),
				zap.Time("at", now),
			)
		}
	}
}
