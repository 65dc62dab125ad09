package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/internal/model"
)

var (
	// ErrFeedNotFound 订阅源不存在
	ErrFeedNotFound = errors.New("feed not found")
	// ErrNotQuarantined 只有隔离状态的源才能恢复
	ErrNotQuarantined = errors.New("feed is not quarantined")
)

// Config 健康监控配置
type Config struct {
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold"` // 连续失败多少次进入隔离
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{FailureThreshold: 3}
}

// Validate 校验配置合法性
func (c Config) Validate() error {
	if c.FailureThreshold < 1 {
		return fmt.Errorf("failure_threshold must be at least 1, got %d", c.FailureThreshold)
	}
	return nil
}

// Monitor 订阅源健康状态机,是status及失败计数字段的唯一写入方
// 状态流转:active → failing → quarantined,隔离只能通过Restore显式解除
// 同一个源的状态写入串行化,不同源之间互不阻塞
type Monitor struct {
	db     *gorm.DB
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[uint]*sync.Mutex // 按feed id分锁
}

func NewMonitor(db *gorm.DB, cfg Config, logger zerolog.Logger) *Monitor {
	return &Monitor{
		db:     db,
		cfg:    cfg,
		logger: logger.With().Str("component", "health").Logger(),
		now:    time.Now,
		locks:  make(map[uint]*sync.Mutex),
	}
}

func (m *Monitor) feedLock(id uint) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Monitor) load(ctx context.Context, id uint) (*model.Feed, error) {
	var feed model.Feed
	if err := m.db.WithContext(ctx).First(&feed, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedNotFound
		}
		return nil, err
	}
	return &feed, nil
}

// RecordSuccess 抓取成功:清零失败计数并回到active
// 隔离只能通过Restore解除,迟到的成功上报不改变隔离状态
func (m *Monitor) RecordSuccess(ctx context.Context, feedID uint) error {
	lock := m.feedLock(feedID)
	lock.Lock()
	defer lock.Unlock()

	feed, err := m.load(ctx, feedID)
	if err != nil {
		return err
	}
	if feed.Status == model.FeedStatusQuarantined {
		return nil
	}

	now := m.now()
	prev := feed.Status
	feed.Status = model.FeedStatusActive
	feed.ConsecutiveFailures = 0
	feed.LastSuccessAt = &now
	feed.LastFetched = &now

	if err := m.db.WithContext(ctx).Save(feed).Error; err != nil {
		return fmt.Errorf("record success for feed %d: %w", feedID, err)
	}

	if prev != model.FeedStatusActive {
		m.logger.Info().Uint("feed_id", feedID).Str("from", string(prev)).Msg("feed recovered")
	}
	return nil
}

// RecordFailure 抓取失败:累加计数,达到阈值进入隔离,否则标记failing
func (m *Monitor) RecordFailure(ctx context.Context, feedID uint, reason string) error {
	lock := m.feedLock(feedID)
	lock.Lock()
	defer lock.Unlock()

	feed, err := m.load(ctx, feedID)
	if err != nil {
		return err
	}

	now := m.now()
	feed.ConsecutiveFailures++
	feed.LastFailureAt = &now
	feed.LastFetched = &now
	if len(reason) > 500 {
		reason = reason[:500]
	}
	feed.LastErrorMessage = reason

	if feed.ConsecutiveFailures >= m.cfg.FailureThreshold {
		feed.Status = model.FeedStatusQuarantined
	} else {
		feed.Status = model.FeedStatusFailing
	}

	if err := m.db.WithContext(ctx).Save(feed).Error; err != nil {
		return fmt.Errorf("record failure for feed %d: %w", feedID, err)
	}

	evt := m.logger.Warn().
		Uint("feed_id", feedID).
		Int("consecutive_failures", feed.ConsecutiveFailures).
		Str("error", reason)
	if feed.Status == model.FeedStatusQuarantined {
		evt.Msg("feed quarantined")
	} else {
		evt.Msg("feed fetch failed")
	}
	return nil
}

// Restore 手动把隔离中的源恢复为active,不做重新探测
// 对非隔离状态的源返回ErrNotQuarantined且不改任何字段
func (m *Monitor) Restore(ctx context.Context, feedID uint) error {
	lock := m.feedLock(feedID)
	lock.Lock()
	defer lock.Unlock()

	feed, err := m.load(ctx, feedID)
	if err != nil {
		return err
	}
	if feed.Status != model.FeedStatusQuarantined {
		return ErrNotQuarantined
	}

	feed.Status = model.FeedStatusActive
	feed.ConsecutiveFailures = 0

	if err := m.db.WithContext(ctx).Save(feed).Error; err != nil {
		return fmt.Errorf("restore feed %d: %w", feedID, err)
	}

	m.logger.Info().Uint("feed_id", feedID).Msg("feed restored from quarantine")
	return nil
}
