package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量覆盖的前缀，例如 FITLOG_DATABASE_PATH -> database_path
const EnvPrefix = "FITLOG_"

const maxConfigFileSize = 1 << 20

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string        `koanf:"listen_addr"`
	Port             string        `koanf:"port"`
	DatabasePath     string        `koanf:"database_path"`
	SessionSecret    string        `koanf:"session_secret"`
	GinMode          string        `koanf:"gin_mode"`
	LogLevel         string        `koanf:"log_level"`
	LogFormat        string        `koanf:"log_format"`
	PollInterval     time.Duration `koanf:"poll_interval"`
	DueWindow        time.Duration `koanf:"due_window"`
	RetentionDays    int           `koanf:"retention_days"`
	NotificationIcon string        `koanf:"notification_icon"`
	SeedUserEmail    string        `koanf:"seed_user_email"`
	SeedUserPassword string        `koanf:"seed_user_password"`
}

// Load 依次读取 YAML 配置文件（可选）和 FITLOG_ 前缀的环境变量，并为缺失项提供安全的默认值。
// path 为空或文件不存在时只使用环境变量。
func Load(path string) (AppConfig, error) {
	k := koanf.New(".")

	if path = strings.TrimSpace(path); path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return AppConfig{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *AppConfig) {
	cfg.Port = strings.TrimSpace(cfg.Port)
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	cfg.DatabasePath = strings.TrimSpace(cfg.DatabasePath)
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "fitlog.db"
	}

	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "fitlog-dev-secret"
	}

	cfg.GinMode = strings.TrimSpace(cfg.GinMode)
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.DueWindow == 0 {
		cfg.DueWindow = 5 * time.Minute
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 7
	}

	cfg.NotificationIcon = strings.TrimSpace(cfg.NotificationIcon)
	if cfg.NotificationIcon == "" {
		cfg.NotificationIcon = "/logo.png"
	}

	cfg.SeedUserEmail = strings.TrimSpace(cfg.SeedUserEmail)
	cfg.SeedUserPassword = strings.TrimSpace(cfg.SeedUserPassword)
}

// Validate 校验调度相关的数值配置
func (c AppConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.DueWindow <= 0 {
		return fmt.Errorf("due_window must be positive, got %s", c.DueWindow)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	return nil
}
