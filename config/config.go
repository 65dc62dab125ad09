package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"newsdash/internal/health"
	"newsdash/internal/ranking"
	"newsdash/internal/recommend"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Logging   LoggingConfig    `yaml:"logging"`
	Cron      CronConfig       `yaml:"cron"`
	Poller    PollerConfig     `yaml:"poller"`
	Ingest    IngestConfig     `yaml:"ingest"`
	Ranking   ranking.Config   `yaml:"ranking"`
	Recommend recommend.Config `yaml:"recommend"`
	Health    health.Config    `yaml:"health"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type CronConfig struct {
	FetchInterval string `yaml:"fetch_interval"` // 轮询抓取间隔
}

// PollerConfig 轮询周期的并发与超时预算
type PollerConfig struct {
	Concurrency  int           `yaml:"concurrency"`   // 同时抓取的源数量上限
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // 单源抓取超时
	CycleBudget  time.Duration `yaml:"cycle_budget"`  // 整轮的墙钟预算
}

// IngestConfig 入库时的基础分参数
type IngestConfig struct {
	FreshnessWeight  float64       `yaml:"freshness_weight"`  // 新鲜度满分
	FreshnessHorizon time.Duration `yaml:"freshness_horizon"` // 新鲜度衰减窗口
}

// Load 加载配置文件,不存在时使用默认配置,环境变量可覆盖
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	} else {
		log.Printf("配置文件不存在: %s, 使用默认配置", configPath)
	}

	// 环境变量覆盖配置
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.Mode = mode
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验各引擎配置
func (c *Config) Validate() error {
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend config: %w", err)
	}
	if err := c.Health.Validate(); err != nil {
		return fmt.Errorf("health config: %w", err)
	}
	if c.Poller.Concurrency < 1 {
		return fmt.Errorf("poller.concurrency must be at least 1, got %d", c.Poller.Concurrency)
	}
	if c.Poller.FetchTimeout <= 0 || c.Poller.CycleBudget <= 0 {
		return fmt.Errorf("poller timeouts must be positive")
	}
	if c.Ingest.FreshnessHorizon <= 0 {
		return fmt.Errorf("ingest.freshness_horizon must be positive, got %v", c.Ingest.FreshnessHorizon)
	}
	return nil
}

// GetServerAddress 获取服务器监听地址
func (c *Config) GetServerAddress() string {
	// 如果端口是纯数字,加上冒号前缀
	if _, err := strconv.Atoi(c.Server.Port); err == nil {
		return ":" + c.Server.Port
	}
	return c.Server.Port
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Path: "data/news.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Cron: CronConfig{
			FetchInterval: "*/30 * * * *", // 每30分钟
		},
		Poller: PollerConfig{
			Concurrency:  4,
			FetchTimeout: 30 * time.Second,
			CycleBudget:  10 * time.Minute,
		},
		Ingest: IngestConfig{
			FreshnessWeight:  50,
			FreshnessHorizon: 48 * time.Hour,
		},
		Ranking:   ranking.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Health:    health.DefaultConfig(),
	}
}
