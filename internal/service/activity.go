package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/internal/model"
)

var (
	// ErrArticleNotFound 文章不存在
	ErrArticleNotFound = errors.New("article not found")
	// ErrInvalidActivity 行为记录参数非法
	ErrInvalidActivity = errors.New("invalid activity")
)

// ActivityService 用户行为日志:追加记录并联动调整文章基础分
type ActivityService struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewActivityService(db *gorm.DB, logger zerolog.Logger) *ActivityService {
	return &ActivityService{
		db:     db,
		logger: logger.With().Str("component", "activity").Logger(),
	}
}

// Record 记录一条行为并按动作调整文章分数,整体在事务内完成
// 校验失败立即拒绝,不落任何数据
func (s *ActivityService) Record(ctx context.Context, activity *model.UserActivity) error {
	if !activity.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidActivity, activity.Action)
	}
	if activity.ScrollPercentage < 0 || activity.ScrollPercentage > 100 {
		return fmt.Errorf("%w: scroll percentage %d out of [0,100]", ErrInvalidActivity, activity.ScrollPercentage)
	}
	if activity.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidActivity)
	}
	if activity.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidActivity)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var article model.Article
		if err := tx.First(&article, activity.ArticleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrArticleNotFound
			}
			return err
		}

		if err := tx.Create(activity).Error; err != nil {
			return err
		}

		if delta := activity.Action.ScoreDelta(); delta != 0 {
			score := article.Score + delta
			if score > 100 {
				score = 100
			}
			if score < 0 {
				score = 0
			}
			if err := tx.Model(&article).Update("score", score).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecentEngaged 最近limit条参与行为(read/upvote/save),新的在前,带文章和主题
func (s *ActivityService) RecentEngaged(ctx context.Context, userID string, limit int) ([]model.UserActivity, error) {
	var activities []model.UserActivity
	err := s.db.WithContext(ctx).
		Preload("Article").
		Preload("Article.Topics.Topic").
		Where("user_id = ? AND action IN ?", userID,
			[]model.ActivityAction{model.ActionRead, model.ActionUpvote, model.ActionSave}).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("load engaged activities: %w", err)
	}
	return activities, nil
}

// EngagedArticleIDs 用户有过任何行为或收藏过的文章id,用于推荐排除
func (s *ActivityService) EngagedArticleIDs(ctx context.Context, userID string) (map[uint]struct{}, error) {
	var activityIDs []uint
	if err := s.db.WithContext(ctx).
		Model(&model.UserActivity{}).
		Where("user_id = ? AND action IN ?", userID,
			[]model.ActivityAction{model.ActionRead, model.ActionUpvote, model.ActionDownvote, model.ActionSave}).
		Distinct().
		Pluck("article_id", &activityIDs).Error; err != nil {
		return nil, err
	}

	var savedIDs []uint
	if err := s.db.WithContext(ctx).
		Model(&model.SavedArticle{}).
		Where("user_id = ?", userID).
		Pluck("article_id", &savedIDs).Error; err != nil {
		return nil, err
	}

	excluded := make(map[uint]struct{}, len(activityIDs)+len(savedIDs))
	for _, id := range activityIDs {
		excluded[id] = struct{}{}
	}
	for _, id := range savedIDs {
		excluded[id] = struct{}{}
	}
	return excluded, nil
}
