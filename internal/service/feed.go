package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/config"
	"newsdash/internal/health"
	"newsdash/internal/model"
)

// FeedService 负责抓取订阅源并入库文章
type FeedService struct {
	db      *gorm.DB
	fetcher *Fetcher
	cfg     config.IngestConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewFeedService(db *gorm.DB, fetcher *Fetcher, cfg config.IngestConfig, logger zerolog.Logger) *FeedService {
	return &FeedService{
		db:      db,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger.With().Str("component", "feed").Logger(),
		now:     time.Now,
	}
}

// baseScore 入库基础分:新鲜度衰减分 + 来源优先级的一半,截断到[0,100]
func (s *FeedService) baseScore(publishedAt time.Time, priority int) int {
	age := s.now().Sub(publishedAt)
	if age < 0 {
		age = 0
	}

	var freshness float64
	if age < s.cfg.FreshnessHorizon {
		freshness = s.cfg.FreshnessWeight * (1 - float64(age)/float64(s.cfg.FreshnessHorizon))
	}

	score := int(math.Round(freshness)) + priority/2
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

func parseItemTime(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}

// FetchFeed 抓取单个源并入库新文章,按URL去重,返回新增条数
// 无标题或无链接的条目直接跳过
func (s *FeedService) FetchFeed(ctx context.Context, feed *model.Feed) (int, error) {
	items, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return 0, err
	}

	var count int
	for _, item := range items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		pub := parseItemTime(item, s.now())
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		article := model.Article{
			FeedID:      feed.ID,
			Title:       item.Title,
			Description: desc,
			URL:         item.Link,
			Source:      feed.Name,
			Score:       s.baseScore(pub, feed.Priority),
			PublishedAt: pub,
		}

		result := s.db.WithContext(ctx).Where("url = ?", article.URL).FirstOrCreate(&article)
		if result.Error != nil {
			return count, result.Error
		}
		if result.RowsAffected > 0 {
			count++
		}
	}

	s.logger.Debug().Uint("feed_id", feed.ID).Int("new_articles", count).Msg("feed fetched")
	return count, nil
}

// TestResult 诊断抓取的结果
type TestResult struct {
	Success       bool   `json:"success"`
	ArticlesCount int    `json:"articles_count,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
}

// TestFeed 同步抓取一次用于诊断,不入库也不触碰健康状态
func (s *FeedService) TestFeed(ctx context.Context, feedID uint) (*TestResult, error) {
	var feed model.Feed
	if err := s.db.WithContext(ctx).First(&feed, feedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, health.ErrFeedNotFound
		}
		return nil, err
	}

	items, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		res := &TestResult{Success: false, Error: err.Error()}
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			res.ErrorKind = string(fetchErr.Kind)
		}
		return res, nil
	}

	return &TestResult{Success: true, ArticlesCount: len(items)}, nil
}
