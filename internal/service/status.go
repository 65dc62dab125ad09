package service

import (
	"time"

	"gorm.io/gorm"

	"newsdash/internal/model"
)

// StatusService 系统状态统计
type StatusService struct {
	db *gorm.DB
}

type SystemStatus struct {
	// 文章统计
	TotalArticles   int64 `json:"total_articles"`
	TotalActivities int64 `json:"total_activities"`

	// 订阅源统计
	TotalFeeds       int64 `json:"total_feeds"`
	EnabledFeeds     int64 `json:"enabled_feeds"`
	ActiveFeeds      int64 `json:"active_feeds"`
	FailingFeeds     int64 `json:"failing_feeds"`
	QuarantinedFeeds int64 `json:"quarantined_feeds"`

	// 调度信息
	NextFetchTime time.Time   `json:"next_fetch_time"`
	Poller        PollerState `json:"poller"`
}

func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{db: db}
}

// GetSystemStatus 获取系统状态
func (s *StatusService) GetSystemStatus() (*SystemStatus, error) {
	status := &SystemStatus{}

	s.db.Model(&model.Article{}).Count(&status.TotalArticles)
	s.db.Model(&model.UserActivity{}).Count(&status.TotalActivities)

	s.db.Model(&model.Feed{}).Count(&status.TotalFeeds)
	s.db.Model(&model.Feed{}).Where("enabled = ?", true).Count(&status.EnabledFeeds)
	s.db.Model(&model.Feed{}).Where("status = ?", model.FeedStatusActive).Count(&status.ActiveFeeds)
	s.db.Model(&model.Feed{}).Where("status = ?", model.FeedStatusFailing).Count(&status.FailingFeeds)
	s.db.Model(&model.Feed{}).Where("status = ?", model.FeedStatusQuarantined).Count(&status.QuarantinedFeeds)

	return status, nil
}
