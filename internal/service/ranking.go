package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/internal/model"
	"newsdash/internal/ranking"
)

// 候选池是limit的倍数,给重排留出腾挪空间
const candidatePoolFactor = 3

// RankingService 个性化信息流:画像→打分→多样性重排
type RankingService struct {
	db         *gorm.DB
	activities *ActivityService
	builder    *ranking.ProfileBuilder
	scorer     *ranking.Scorer
	reranker   *ranking.ReRanker
	cfg        ranking.Config
	logger     zerolog.Logger
}

func NewRankingService(db *gorm.DB, activities *ActivityService, cfg ranking.Config, logger zerolog.Logger) *RankingService {
	return &RankingService{
		db:         db,
		activities: activities,
		builder:    ranking.NewProfileBuilder(cfg.Profile),
		scorer:     ranking.NewScorer(cfg.Scorer),
		reranker:   ranking.NewReRanker(cfg.Diversity),
		cfg:        cfg,
		logger:     logger.With().Str("component", "ranking").Logger(),
	}
}

// BuildProfile 从最近参与行为构建请求级用户画像
func (s *RankingService) BuildProfile(ctx context.Context, userID string) (ranking.Profile, error) {
	activities, err := s.activities.RecentEngaged(ctx, userID, s.cfg.Profile.HistorySize)
	if err != nil {
		return ranking.Profile{}, err
	}

	history := make([]ranking.Engagement, 0, len(activities))
	for _, a := range activities {
		history = append(history, ranking.Engagement{
			Action:      string(a.Action),
			Source:      a.Article.Source,
			Title:       a.Article.Title,
			Description: a.Article.Description,
		})
	}
	return s.builder.Build(history), nil
}

// primaryTopic 取relevance最高的主题名
func primaryTopic(topics []model.ArticleTopic) string {
	name := ""
	best := -1.0
	for _, t := range topics {
		if t.Relevance > best {
			best = t.Relevance
			name = t.Topic.Name
		}
	}
	return name
}

// GetPersonalizedFeed 个性化信息流
// 画像为空时打分退化为基础分排序,永远返回合法列表而不是错误
func (s *RankingService) GetPersonalizedFeed(ctx context.Context, userID string, limit int, level ranking.DiversityLevel) ([]model.Article, error) {
	if limit <= 0 {
		return []model.Article{}, nil
	}

	profile, err := s.BuildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []model.Article
	if err := s.db.WithContext(ctx).
		Preload("Topics.Topic").
		Order("published_at DESC").
		Limit(limit * candidatePoolFactor).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("load feed candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []model.Article{}, nil
	}

	// 请求内打分,不回写数据库
	for i := range candidates {
		tokens := ranking.Tokenize(candidates[i].Title + " " + candidates[i].Description)
		candidates[i].Score = s.scorer.Score(candidates[i].Source, tokens, candidates[i].Score, profile)
	}

	// 分数降序,平局新文章在前,排序稳定保证结果确定
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	ranked := make([]ranking.RankedArticle, len(candidates))
	byID := make(map[uint]model.Article, len(candidates))
	for i, a := range candidates {
		ranked[i] = ranking.RankedArticle{
			ID:     a.ID,
			Source: a.Source,
			Topic:  primaryTopic(a.Topics),
			Score:  a.Score,
		}
		byID[a.ID] = a
	}

	reranked := s.reranker.ReRank(ranked, level)

	out := make([]model.Article, 0, limit)
	for _, r := range reranked {
		out = append(out, byID[r.ID])
		if len(out) == limit {
			break
		}
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("diversity", string(level)).
		Bool("cold_start", profile.Empty()).
		Int("returned", len(out)).
		Msg("personalized feed computed")
	return out, nil
}
