package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/internal/model"
	"newsdash/internal/ranking"
	"newsdash/internal/recommend"
)

// RecommendService 发现式推荐:未读候选 × 参与历史 → 五信号打分
type RecommendService struct {
	db         *gorm.DB
	activities *ActivityService
	engine     *recommend.Engine
	cfg        recommend.Config
	profileCfg ranking.ProfileConfig
	logger     zerolog.Logger
}

func NewRecommendService(db *gorm.DB, activities *ActivityService, cfg recommend.Config, profileCfg ranking.ProfileConfig, logger zerolog.Logger) *RecommendService {
	return &RecommendService{
		db:         db,
		activities: activities,
		engine:     recommend.NewEngine(cfg, logger),
		cfg:        cfg,
		profileCfg: profileCfg,
		logger:     logger.With().Str("component", "recommend-service").Logger(),
	}
}

func toTopics(topics []model.ArticleTopic) []recommend.TopicRelevance {
	out := make([]recommend.TopicRelevance, 0, len(topics))
	for _, t := range topics {
		out = append(out, recommend.TopicRelevance{Name: t.Topic.Name, Relevance: t.Relevance})
	}
	return out
}

// GetRecommendations 推荐未读文章,冷启动时依然返回合法(可能为空)列表
func (s *RecommendService) GetRecommendations(ctx context.Context, userID string, limit int) ([]recommend.Recommendation, error) {
	if limit <= 0 {
		return []recommend.Recommendation{}, nil
	}

	engaged, err := s.activities.RecentEngaged(ctx, userID, s.profileCfg.HistorySize)
	if err != nil {
		return nil, err
	}
	history := make([]recommend.Liked, 0, len(engaged))
	for _, a := range engaged {
		history = append(history, recommend.Liked{
			Source: a.Article.Source,
			Tokens: ranking.Tokenize(a.Article.Title + " " + a.Article.Description),
			Topics: toTopics(a.Article.Topics),
		})
	}

	excluded, err := s.activities.EngagedArticleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load exclusion set: %w", err)
	}

	// 候选窗口:最新的limit+buffer篇,排除已读/已收藏
	query := s.db.WithContext(ctx).
		Preload("Topics.Topic").
		Order("published_at DESC").
		Limit(limit + s.cfg.CandidateBuffer)
	if len(excluded) > 0 {
		ids := make([]uint, 0, len(excluded))
		for id := range excluded {
			ids = append(ids, id)
		}
		query = query.Where("id NOT IN ?", ids)
	}

	var articles []model.Article
	if err := query.Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("load recommendation candidates: %w", err)
	}

	candidates := make([]recommend.Candidate, 0, len(articles))
	for _, a := range articles {
		candidates = append(candidates, recommend.Candidate{
			ArticleID:   a.ID,
			Source:      a.Source,
			Tokens:      ranking.Tokenize(a.Title + " " + a.Description),
			Topics:      toTopics(a.Topics),
			BaseScore:   a.Score,
			PublishedAt: a.PublishedAt,
		})
	}

	return s.engine.Recommend(candidates, history, limit), nil
}
