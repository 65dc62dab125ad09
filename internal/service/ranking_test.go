package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"newsdash/internal/model"
	"newsdash/internal/ranking"
)

func newTestRankingService(db *gorm.DB) *RankingService {
	activities := NewActivityService(db, zerolog.Nop())
	return NewRankingService(db, activities, ranking.DefaultConfig(), zerolog.Nop())
}

func seedScoredArticle(t *testing.T, db *gorm.DB, source, url string, score int, age time.Duration) *model.Article {
	t.Helper()
	article := &model.Article{
		FeedID:      1,
		Title:       "article from " + source,
		Description: "content about " + source,
		URL:         url,
		Source:      source,
		Score:       score,
		PublishedAt: time.Now().Add(-age),
	}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return article
}

func TestPersonalizedFeedColdStart(t *testing.T) {
	db := testDB(t)
	svc := newTestRankingService(db)

	// 无任何参与历史:按基础分排序返回
	high := seedScoredArticle(t, db, "A", "https://example.org/h", 90, time.Hour)
	low := seedScoredArticle(t, db, "B", "https://example.org/l", 30, time.Hour)
	mid := seedScoredArticle(t, db, "C", "https://example.org/m", 60, time.Hour)

	got, err := svc.GetPersonalizedFeed(context.Background(), "newuser", 10, ranking.DiversityMedium)
	if err != nil {
		t.Fatalf("personalized feed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d articles, want 3", len(got))
	}
	if got[0].ID != high.ID || got[1].ID != mid.ID || got[2].ID != low.ID {
		t.Errorf("cold start order = [%d %d %d], want base-score order [%d %d %d]",
			got[0].ID, got[1].ID, got[2].ID, high.ID, mid.ID, low.ID)
	}
}

func TestPersonalizedFeedBoostsEngagedSource(t *testing.T) {
	db := testDB(t)
	svc := newTestRankingService(db)
	ctx := context.Background()

	liked := seedScoredArticle(t, db, "FavBlog", "https://example.org/liked", 50, 24*time.Hour)
	// 同基础分的两篇候选:一篇来自用户点赞过的源
	fav := seedScoredArticle(t, db, "FavBlog", "https://example.org/fav", 40, time.Hour)
	other := seedScoredArticle(t, db, "OtherSite", "https://example.org/other", 40, time.Hour)

	activities := NewActivityService(db, zerolog.Nop())
	if err := activities.Record(ctx, &model.UserActivity{
		UserID: "u1", ArticleID: liked.ID, Action: model.ActionUpvote,
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	got, err := svc.GetPersonalizedFeed(ctx, "u1", 10, ranking.DiversityMedium)
	if err != nil {
		t.Fatalf("personalized feed: %v", err)
	}

	pos := map[uint]int{}
	for i, a := range got {
		pos[a.ID] = i
	}
	if pos[fav.ID] > pos[other.ID] {
		t.Errorf("favored-source article ranked at %d, behind unknown source at %d", pos[fav.ID], pos[other.ID])
	}
}

func TestPersonalizedFeedAppliesDiversity(t *testing.T) {
	db := testDB(t)
	svc := newTestRankingService(db)

	// 高分源刷屏:5篇高分同源 + 2篇低分异源
	for i := 0; i < 5; i++ {
		seedScoredArticle(t, db, "Dominant", fmt.Sprintf("https://example.org/d%d", i), 90, time.Hour)
	}
	seedScoredArticle(t, db, "Alt1", "https://example.org/a1", 40, time.Hour)
	seedScoredArticle(t, db, "Alt2", "https://example.org/a2", 40, time.Hour)

	got, err := svc.GetPersonalizedFeed(context.Background(), "u1", 7, ranking.DiversityHigh)
	if err != nil {
		t.Fatalf("personalized feed: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("got %d articles, want 7 (no article dropped)", len(got))
	}

	// high等级cap=2:两篇Alt必须被插进前4位打断刷屏
	// (Alt用尽后剩余同源文章允许放宽,不检查尾部)
	altSeen := 0
	for i := 0; i < 4; i++ {
		if got[i].Source != "Dominant" {
			altSeen++
		}
	}
	if altSeen != 2 {
		t.Errorf("expected both alternate sources within first 4 positions, got %v", sourcesOf(got))
	}
	if got[0].Source != "Dominant" || got[1].Source != "Dominant" {
		t.Errorf("top scored source must still lead, got %v", sourcesOf(got))
	}
}

func sourcesOf(articles []model.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Source
	}
	return out
}

func TestPersonalizedFeedEmptyDatabase(t *testing.T) {
	db := testDB(t)
	svc := newTestRankingService(db)

	got, err := svc.GetPersonalizedFeed(context.Background(), "u1", 10, ranking.DiversityLow)
	if err != nil {
		t.Fatalf("personalized feed on empty db must not error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("want empty non-nil list, got %v", got)
	}
}

func TestPersonalizedFeedScoreNotPersisted(t *testing.T) {
	db := testDB(t)
	svc := newTestRankingService(db)
	ctx := context.Background()

	liked := seedScoredArticle(t, db, "Blog", "https://example.org/x", 50, time.Hour)
	candidate := seedScoredArticle(t, db, "Blog", "https://example.org/y", 50, time.Hour)

	activities := NewActivityService(db, zerolog.Nop())
	activities.Record(ctx, &model.UserActivity{UserID: "u1", ArticleID: liked.ID, Action: model.ActionUpvote})

	if _, err := svc.GetPersonalizedFeed(ctx, "u1", 10, ranking.DiversityMedium); err != nil {
		t.Fatalf("personalized feed: %v", err)
	}

	// 请求级打分不回写数据库
	var got model.Article
	db.First(&got, candidate.ID)
	if got.Score != 50 {
		t.Errorf("stored score = %d, want untouched 50", got.Score)
	}
}
