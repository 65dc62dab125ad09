package model

import "time"

type ActivityAction string

const (
	ActionView     ActivityAction = "view"
	ActionRead     ActivityAction = "read"
	ActionUpvote   ActivityAction = "upvote"
	ActionDownvote ActivityAction = "downvote"
	ActionSave     ActivityAction = "save"
)

// Valid 检查动作是否合法
func (a ActivityAction) Valid() bool {
	switch a {
	case ActionView, ActionRead, ActionUpvote, ActionDownvote, ActionSave:
		return true
	}
	return false
}

// Engaged 是否属于参与行为(参与行为才进入用户画像)
func (a ActivityAction) Engaged() bool {
	switch a {
	case ActionRead, ActionUpvote, ActionSave:
		return true
	}
	return false
}

// ScoreDelta 对文章基础分的调整量
func (a ActivityAction) ScoreDelta() int {
	switch a {
	case ActionUpvote:
		return 5
	case ActionDownvote:
		return -5
	case ActionSave:
		return 3
	case ActionRead:
		return 1
	}
	return 0
}

// UserActivity 用户行为日志,只追加不修改
type UserActivity struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           string         `gorm:"size:64;not null;index" json:"user_id"`
	ArticleID        uint           `gorm:"not null;index" json:"article_id"`
	Article          Article        `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	Action           ActivityAction `gorm:"size:20;not null" json:"action"`
	DurationSeconds  int            `json:"duration_seconds,omitempty"`
	ScrollPercentage int            `json:"scroll_percentage,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
}
