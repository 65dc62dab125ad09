package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"newsdash/config"
	"newsdash/internal/service"
)

// Scheduler 定时触发轮询周期
type Scheduler struct {
	cron         *cron.Cron
	poller       *service.Poller
	cfg          config.CronConfig
	logger       zerolog.Logger
	fetchEntryID cron.EntryID
}

func NewScheduler(poller *service.Poller, cfg config.CronConfig, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		poller: poller,
		cfg:    cfg,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

func (s *Scheduler) Start() error {
	var err error
	s.fetchEntryID, err = s.cron.AddFunc(s.cfg.FetchInterval, func() {
		if _, err := s.poller.RunCycle(context.Background(), "scheduled"); err != nil {
			s.logger.Error().Err(err).Msg("scheduled poll cycle failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("fetch_interval", s.cfg.FetchInterval).Msg("scheduler started")
	return nil
}

// GetNextFetchTime 获取下次抓取时间
func (s *Scheduler) GetNextFetchTime() time.Time {
	entry := s.cron.Entry(s.fetchEntryID)
	return entry.Next
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
