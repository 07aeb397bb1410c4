// Package main 是 fitlog 服务的命令行入口。
package main

import (
	"fmt"
	"os"

	"github.com/fitlog/internal/config"
	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/logging"
	"github.com/fitlog/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Workout history, statistics and reminder service",
	Long: `fitlog stores per-user workout history, derives statistics and achievements,
and fires meal and workout reminders while it is running.

Running without a subcommand starts the HTTP server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, resetCmd)
}

// runtimeEnv 是各子命令共用的启动结果
type runtimeEnv struct {
	cfg    config.AppConfig
	logger *zap.Logger
	store  storage.Store
}

// bootstrap 读取配置、初始化日志与数据库
func bootstrap() (*runtimeEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	logger.Debug("database ready", zap.String("path", cfg.DatabasePath))

	return &runtimeEnv{cfg: cfg, logger: logger, store: storage.NewGormStore(db.DB)}, nil
}
