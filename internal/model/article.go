package model

import "time"

// Article 文章,URL唯一去重,Score为基础分(0-100)
// 个性化打分只在请求内计算,不回写数据库
type Article struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	FeedID      uint           `gorm:"not null;index" json:"feed_id"`
	Feed        Feed           `gorm:"foreignKey:FeedID" json:"feed,omitempty"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	URL         string         `gorm:"size:500;uniqueIndex;not null" json:"url"`
	Source      string         `gorm:"size:255;index" json:"source"`
	Score       int            `gorm:"default:0" json:"score"`
	PublishedAt time.Time      `gorm:"index" json:"published_at"`
	Topics      []ArticleTopic `gorm:"foreignKey:ArticleID" json:"topics,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Topic 主题字典,只作为输入信号
type Topic struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// ArticleTopic 文章-主题关联,relevance取值[0,1]
type ArticleTopic struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ArticleID uint    `gorm:"not null;index" json:"article_id"`
	TopicID   uint    `gorm:"not null;index" json:"topic_id"`
	Topic     Topic   `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Relevance float64 `gorm:"default:0" json:"relevance"`
}

// SavedArticle 稍后读书签,priority取值[1,5]
type SavedArticle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	Priority  int       `gorm:"default:3" json:"priority"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
