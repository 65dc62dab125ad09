package model

import "time"

type FeedStatus string

const (
	FeedStatusActive      FeedStatus = "active"      // 正常
	FeedStatusFailing     FeedStatus = "failing"     // 连续失败中,仍参与轮询
	FeedStatusQuarantined FeedStatus = "quarantined" // 已隔离,需手动恢复
)

// Feed 订阅源,status相关字段只由health.Monitor写入
type Feed struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"size:255;not null" json:"name"`
	URL                 string     `gorm:"size:500;uniqueIndex;not null" json:"url"`
	Type                string     `gorm:"size:50;default:rss" json:"type"`
	Category            string     `gorm:"size:100;default:tech" json:"category"`
	Status              FeedStatus `gorm:"size:20;default:active;index" json:"status"`
	ConsecutiveFailures int        `gorm:"default:0" json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	LastErrorMessage    string     `gorm:"size:500" json:"last_error_message,omitempty"`
	Priority            int        `gorm:"default:50" json:"priority"`
	UpdateFrequency     int        `gorm:"default:60" json:"update_frequency"` // 抓取间隔(分钟)
	Enabled             bool       `gorm:"default:true;index" json:"enabled"`
	LastFetched         *time.Time `json:"last_fetched,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
