package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"newsdash/internal/health"
	"newsdash/internal/model"
	"newsdash/internal/ranking"
	"newsdash/internal/service"
)

const defaultUserID = "default"

type Handler struct {
	db        *gorm.DB
	feed      *service.FeedService
	activity  *service.ActivityService
	ranking   *service.RankingService
	recommend *service.RecommendService
	poller    *service.Poller
	monitor   *health.Monitor
	status    *service.StatusService
	scheduler interface {
		GetNextFetchTime() time.Time
	}
}

type Deps struct {
	DB        *gorm.DB
	Feed      *service.FeedService
	Activity  *service.ActivityService
	Ranking   *service.RankingService
	Recommend *service.RecommendService
	Poller    *service.Poller
	Monitor   *health.Monitor
	Status    *service.StatusService
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		db:        deps.DB,
		feed:      deps.Feed,
		activity:  deps.Activity,
		ranking:   deps.Ranking,
		recommend: deps.Recommend,
		poller:    deps.Poller,
		monitor:   deps.Monitor,
		status:    deps.Status,
	}
}

// SetScheduler 设置调度器引用
func (h *Handler) SetScheduler(scheduler interface {
	GetNextFetchTime() time.Time
}) {
	h.scheduler = scheduler
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// Feeds
		api.GET("/feeds", h.ListFeeds)
		api.POST("/feeds", h.CreateFeed)
		api.PATCH("/feeds/:id", h.UpdateFeed)
		api.DELETE("/feeds/:id", h.DeleteFeed)
		api.POST("/feeds/:id/test", h.TestFeed)
		api.POST("/feeds/:id/restore", h.RestoreFeed)
		api.POST("/feeds/refresh", h.RefreshFeeds)

		// 排序与推荐
		api.GET("/feed", h.PersonalizedFeed)
		api.GET("/recommendations", h.Recommendations)

		// Articles & Activities
		api.GET("/articles", h.ListArticles)
		api.POST("/activities", h.RecordActivity)

		// Status
		api.GET("/status", h.GetStatus)
	}
}

// userID 从请求头取用户标识,单用户部署时退回默认值
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

// ===== Feed相关 =====

func (h *Handler) ListFeeds(c *gin.Context) {
	query := h.db

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if enabled := c.Query("enabled"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enabled filter"})
			return
		}
		query = query.Where("enabled = ?", v)
	}

	var feeds []model.Feed
	query.Order("priority DESC").Find(&feeds)
	c.JSON(http.StatusOK, feeds)
}

type createFeedInput struct {
	Name            string `json:"name" binding:"required"`
	URL             string `json:"url" binding:"required,url"`
	Type            string `json:"type"`
	Category        string `json:"category"`
	Priority        *int   `json:"priority"`
	UpdateFrequency *int   `json:"update_frequency"`
}

func (h *Handler) CreateFeed(c *gin.Context) {
	var input createFeedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feed := model.Feed{
		Name:     input.Name,
		URL:      input.URL,
		Type:     input.Type,
		Category: input.Category,
		Status:   model.FeedStatusActive,
		Priority: 50,
		Enabled:  true,
	}
	if input.Priority != nil {
		if *input.Priority < 0 || *input.Priority > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be in [0,100]"})
			return
		}
		feed.Priority = *input.Priority
	}
	if input.UpdateFrequency != nil {
		if *input.UpdateFrequency < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "update_frequency must be positive"})
			return
		}
		feed.UpdateFrequency = *input.UpdateFrequency
	}

	if err := h.db.Create(&feed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, feed)
}

type updateFeedInput struct {
	Enabled  *bool `json:"enabled"`
	Priority *int  `json:"priority"`
}

// UpdateFeed 管理侧只允许改enabled和priority,健康字段归Monitor管
func (h *Handler) UpdateFeed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return
	}

	var input updateFeedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Priority != nil && (*input.Priority < 0 || *input.Priority > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be in [0,100]"})
		return
	}

	var feed model.Feed
	if err := h.db.First(&feed, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	updates := map[string]any{}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if len(updates) > 0 {
		if err := h.db.Model(&feed).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return
	}
	h.db.Delete(&model.Feed{}, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// TestFeed 诊断抓取,不改变健康状态
func (h *Handler) TestFeed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return
	}

	result, err := h.feed.TestFeed(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, health.ErrFeedNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RestoreFeed 手动解除隔离,只对quarantined状态有效
func (h *Handler) RestoreFeed(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return
	}

	if err := h.monitor.Restore(c.Request.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, health.ErrFeedNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "feed not found"})
		case errors.Is(err, health.ErrNotQuarantined):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "feed is not quarantined"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "feed restored"})
}

// RefreshFeeds 后台触发一轮立即抓取,不阻塞请求
func (h *Handler) RefreshFeeds(c *gin.Context) {
	go h.poller.Trigger(context.Background())
	c.JSON(http.StatusOK, gin.H{"message": "refresh triggered"})
}

// ===== 排序与推荐 =====

func (h *Handler) PersonalizedFeed(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be in [1,100]"})
		return
	}
	level, err := ranking.ParseDiversityLevel(c.Query("diversity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	articles, err := h.ranking.GetPersonalizedFeed(c.Request.Context(), userID(c), limit, level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": articles, "diversity": level})
}

func (h *Handler) Recommendations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be in [1,50]"})
		return
	}

	recs, err := h.recommend.GetRecommendations(c.Request.Context(), userID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}

// ===== Article与Activity相关 =====

func (h *Handler) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize := 20

	query := h.db.Model(&model.Article{}).Preload("Feed")
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}

	var total int64
	query.Count(&total)

	var articles []model.Article
	query.Order("published_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&articles)

	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"total": total,
		"page":  page,
	})
}

type recordActivityInput struct {
	ArticleID        uint   `json:"article_id" binding:"required"`
	Action           string `json:"action" binding:"required"`
	DurationSeconds  int    `json:"duration_seconds"`
	ScrollPercentage int    `json:"scroll_percentage"`
}

func (h *Handler) RecordActivity(c *gin.Context) {
	var input recordActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	activity := &model.UserActivity{
		UserID:           userID(c),
		ArticleID:        input.ArticleID,
		Action:           model.ActivityAction(input.Action),
		DurationSeconds:  input.DurationSeconds,
		ScrollPercentage: input.ScrollPercentage,
	}

	if err := h.activity.Record(c.Request.Context(), activity); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidActivity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrArticleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, activity)
}

// ===== Status相关 =====

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.GetSystemStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status.Poller = h.poller.State()
	if h.scheduler != nil {
		status.NextFetchTime = h.scheduler.GetNextFetchTime()
	}
	c.JSON(http.StatusOK, status)
}
