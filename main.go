package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"newsdash/config"
	"newsdash/internal/handler"
	"newsdash/internal/health"
	"newsdash/internal/model"
	"newsdash/internal/scheduler"
	"newsdash/internal/service"
)

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func main() {
	configPath := os.Getenv("NEWSDASH_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg.Logging.Level)

	// 初始化数据库
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.Feed{},
		&model.Article{},
		&model.Topic{},
		&model.ArticleTopic{},
		&model.SavedArticle{},
		&model.UserActivity{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	// 初始化服务
	fetcher := service.NewFetcher(cfg.Poller.FetchTimeout)
	feedSvc := service.NewFeedService(db, fetcher, cfg.Ingest, logger)
	activitySvc := service.NewActivityService(db, logger)
	rankingSvc := service.NewRankingService(db, activitySvc, cfg.Ranking, logger)
	recommendSvc := service.NewRecommendService(db, activitySvc, cfg.Recommend, cfg.Ranking.Profile, logger)
	monitor := health.NewMonitor(db, cfg.Health, logger)
	poller := service.NewPoller(db, feedSvc, monitor, cfg.Poller, logger)
	statusSvc := service.NewStatusService(db)

	// 启动定时任务
	sched := scheduler.NewScheduler(poller, cfg.Cron, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer sched.Stop()

	// 初始化Gin
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	h := handler.NewHandler(handler.Deps{
		DB:        db,
		Feed:      feedSvc,
		Activity:  activitySvc,
		Ranking:   rankingSvc,
		Recommend: recommendSvc,
		Poller:    poller,
		Monitor:   monitor,
		Status:    statusSvc,
	})
	h.SetScheduler(sched)
	h.RegisterRoutes(r)

	// 启动服务
	addr := cfg.GetServerAddress()
	logger.Info().Str("addr", addr).Msg("server starting")
	if err := r.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
