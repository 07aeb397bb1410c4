package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/handler"
	"github.com/fitlog/internal/notify"
	"github.com/fitlog/internal/router"
	"github.com/fitlog/internal/scheduler"
	"github.com/fitlog/internal/service"
	"github.com/fitlog/internal/userdata"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and both reminder schedulers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.logger.Sync() //nolint:errcheck
	cfg, logger := env.cfg, env.logger

	if err := db.EnsureUser(db.DB, cfg.SeedUserEmail, cfg.SeedUserPassword); err != nil {
		return fmt.Errorf("ensure seed user: %w", err)
	}

	session := userdata.NewSession(env.store, logger)
	hub := notify.NewHub(logger.Named("notify"))

	history := service.NewWorkoutHistoryService(logger.Named("history"))
	meals := service.NewMealNotificationService(hub, logger.Named("meals")).
		WithDueWindow(cfg.DueWindow).
		WithRetentionDays(cfg.RetentionDays).
		WithIcon(cfg.NotificationIcon)
	reminders := service.NewWorkoutReminderService(hub, logger.Named("reminders")).
		WithDueWindow(cfg.DueWindow).
		WithRetentionDays(cfg.RetentionDays).
		WithIcon(cfg.NotificationIcon)

	// 进程重启后恢复上次登录身份对应的数据迁移
	if identity := session.Identity(); identity != "" {
		if _, err := userdata.MigrateLegacyData(env.store, identity, time.Now(), logger); err != nil {
			logger.Warn("legacy data migration failed", zap.String("identity", identity), zap.Error(err))
		}
	}

	mealPoller, err := scheduler.NewPoller("meal", cfg.PollInterval, scheduler.SessionCheck(session, meals, logger), logger)
	if err != nil {
		return err
	}
	reminderPoller, err := scheduler.NewPoller("workout", cfg.PollInterval, scheduler.SessionCheck(session, reminders, logger), logger)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	api := handler.NewAPI(handler.Dependencies{
		Store:     env.store,
		Accounts:  service.NewAccountService(db.DB, env.store, session, logger.Named("accounts")),
		History:   history,
		Meals:     meals,
		Reminders: reminders,
		Diet:      service.NewDietService(),
		Hub:       hub,
		Logger:    logger,
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.SessionSecret, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mealPoller.Run(gctx) })
	g.Go(func() error { return reminderPoller.Run(gctx) })
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
