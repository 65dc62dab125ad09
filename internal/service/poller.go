package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"newsdash/config"
	"newsdash/internal/model"
)

type feedFetcher interface {
	FetchFeed(ctx context.Context, feed *model.Feed) (int, error)
}

type outcomeRecorder interface {
	RecordSuccess(ctx context.Context, feedID uint) error
	RecordFailure(ctx context.Context, feedID uint, reason string) error
}

// CycleResult 一轮轮询的统计
type CycleResult struct {
	JobID       string    `json:"job_id"`
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
	FeedsPolled int       `json:"feeds_polled"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"` // 预算耗尽未开始的源,下轮重试
	NewArticles int       `json:"new_articles"`
}

// PollerState 供状态接口展示的调度信息
type PollerState struct {
	TotalRuns int          `json:"total_runs"`
	LastRun   *CycleResult `json:"last_run,omitempty"`
	Running   bool         `json:"running"`
}

// Poller 轮询协调器:限并发扇出抓取,单源失败互不影响
// 隔离中的源不参与轮询,结果统一上报健康监控
type Poller struct {
	db      *gorm.DB
	fetcher feedFetcher
	monitor outcomeRecorder
	cfg     config.PollerConfig
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   PollerState
	running bool
}

func NewPoller(db *gorm.DB, fetcher feedFetcher, monitor outcomeRecorder, cfg config.PollerConfig, logger zerolog.Logger) *Poller {
	return &Poller{
		db:      db,
		fetcher: fetcher,
		monitor: monitor,
		cfg:     cfg,
		logger:  logger.With().Str("component", "poller").Logger(),
		now:     time.Now,
	}
}

// due 是否到达该源自身的抓取间隔
func (p *Poller) due(feed *model.Feed, now time.Time) bool {
	if feed.LastFetched == nil || feed.UpdateFrequency <= 0 {
		return true
	}
	return now.Sub(*feed.LastFetched) >= time.Duration(feed.UpdateFrequency)*time.Minute
}

// pollableFeeds 启用且未隔离、到达抓取间隔的源
func (p *Poller) pollableFeeds(ctx context.Context) ([]model.Feed, error) {
	var feeds []model.Feed
	err := p.db.WithContext(ctx).
		Where("enabled = ? AND status <> ?", true, model.FeedStatusQuarantined).
		Order("priority DESC").
		Find(&feeds).Error
	if err != nil {
		return nil, err
	}

	now := p.now()
	due := feeds[:0]
	for i := range feeds {
		if p.due(&feeds[i], now) {
			due = append(due, feeds[i])
		}
	}
	return due, nil
}

// RunCycle 执行一轮轮询
// 整轮受墙钟预算约束,预算耗尽时未开始的源跳过而非记失败
func (p *Poller) RunCycle(ctx context.Context, trigger string) (*CycleResult, error) {
	jobID := trigger + "-" + uuid.NewString()[:8]
	started := p.now()

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Warn().Str("job_id", jobID).Msg("poll cycle already running, skipping")
		return nil, nil
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	feeds, err := p.pollableFeeds(ctx)
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("job_id", jobID).Int("feeds", len(feeds)).Msg("poll cycle started")

	budgetCtx, cancel := context.WithTimeout(ctx, p.cfg.CycleBudget)
	defer cancel()
	// 健康状态写入不跟随预算取消,迟到的结果也要记录
	recordCtx := context.WithoutCancel(ctx)

	result := &CycleResult{JobID: jobID, StartedAt: started}
	var resMu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)

	for i := range feeds {
		feed := feeds[i]

		// 预算耗尽:剩余源不再启动,留待下轮
		if budgetCtx.Err() != nil {
			resMu.Lock()
			result.Skipped++
			resMu.Unlock()
			continue
		}

		g.Go(func() error {
			if budgetCtx.Err() != nil {
				resMu.Lock()
				result.Skipped++
				resMu.Unlock()
				return nil
			}

			count, fetchErr := p.fetcher.FetchFeed(budgetCtx, &feed)

			resMu.Lock()
			result.FeedsPolled++
			resMu.Unlock()

			if fetchErr != nil {
				if err := p.monitor.RecordFailure(recordCtx, feed.ID, fetchErr.Error()); err != nil {
					p.logger.Error().Err(err).Uint("feed_id", feed.ID).Msg("record failure")
				}
				resMu.Lock()
				result.Failed++
				resMu.Unlock()
				return nil
			}

			if err := p.monitor.RecordSuccess(recordCtx, feed.ID); err != nil {
				p.logger.Error().Err(err).Uint("feed_id", feed.ID).Msg("record success")
			}
			resMu.Lock()
			result.Succeeded++
			result.NewArticles += count
			resMu.Unlock()
			return nil
		})
	}

	g.Wait()
	result.Duration = p.now().Sub(started).String()

	p.mu.Lock()
	p.state.TotalRuns++
	p.state.LastRun = result
	p.mu.Unlock()

	p.logger.Info().
		Str("job_id", jobID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("new_articles", result.NewArticles).
		Msg("poll cycle finished")
	return result, nil
}

// Trigger 手动触发一轮,不等调度
func (p *Poller) Trigger(ctx context.Context) (*CycleResult, error) {
	return p.RunCycle(ctx, "manual")
}

// State 当前调度统计快照
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Running = p.running
	return s
}
