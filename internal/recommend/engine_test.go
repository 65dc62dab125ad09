package recommend

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	e := NewEngine(cfg, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return e
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestRecommendScoreFloor(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	// 老旧、低质、陌生来源:五路信号全为零或接近零,必须被过滤
	stale := Candidate{
		ArticleID:   1,
		Source:      "UnknownLowQuality",
		Tokens:      []string{"misc"},
		BaseScore:   10,
		PublishedAt: fixedNow().Add(-100 * time.Hour),
	}
	got := e.Recommend([]Candidate{stale}, nil, 10)
	if len(got) != 0 {
		t.Fatalf("expected weak-signal candidate to be filtered, got %d results", len(got))
	}

	// 输出中不允许出现总分<=10的推荐
	fresh := Candidate{
		ArticleID:   2,
		Source:      "GoodUnknown",
		BaseScore:   80,
		PublishedAt: fixedNow().Add(-1 * time.Hour),
	}
	for _, r := range e.Recommend([]Candidate{stale, fresh}, nil, 10) {
		if r.Score <= 10 {
			t.Errorf("recommendation %d has score %v <= floor", r.ArticleID, r.Score)
		}
	}
}

func TestRecommendColdStart(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	c := Candidate{
		ArticleID:   1,
		Source:      "Quality",
		Tokens:      []string{"anything"},
		BaseScore:   90,
		PublishedAt: fixedNow(),
	}
	got := e.Recommend([]Candidate{c}, nil, 5)
	if len(got) != 1 {
		t.Fatalf("cold start must still recommend, got %d", len(got))
	}

	b := got[0].Breakdown
	if b.Similarity != 0 || b.TopicAffinity != 0 || b.SourceAffinity != 0 {
		t.Errorf("history-driven signals must be zero on cold start: %+v", b)
	}
	if b.Serendipity != 20 {
		t.Errorf("serendipity = %v, want 20", b.Serendipity)
	}
	if b.Recency != 15 {
		t.Errorf("recency = %v, want 15 for just-published article", b.Recency)
	}
	if got[0].Score != 35 {
		t.Errorf("total = %v, want 35", got[0].Score)
	}
}

func TestSerendipityQualityGate(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	low := Candidate{ArticleID: 1, Source: "Unknown", BaseScore: 59, PublishedAt: fixedNow()}
	ok := Candidate{ArticleID: 2, Source: "Unknown", BaseScore: 60, PublishedAt: fixedNow()}

	taste := e.buildTaste(nil)
	if b := e.score(low, taste, fixedNow()); b.Serendipity != 0 {
		t.Errorf("base score below quality floor must not earn serendipity, got %v", b.Serendipity)
	}
	if b := e.score(ok, taste, fixedNow()); b.Serendipity != 20 {
		t.Errorf("serendipity = %v, want 20", b.Serendipity)
	}

	// 已知来源无论质量多高都没有发现加分
	history := []Liked{{Source: "Known"}}
	known := Candidate{ArticleID: 3, Source: "Known", BaseScore: 95, PublishedAt: fixedNow()}
	if b := e.score(known, e.buildTaste(history), fixedNow()); b.Serendipity != 0 {
		t.Errorf("known source must not earn serendipity, got %v", b.Serendipity)
	}
}

func TestSimilaritySignal(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	history := []Liked{
		{Source: "Blog", Tokens: []string{"rust", "compiler", "llvm"}},
		{Source: "Blog", Tokens: []string{"rust", "async"}},
	}
	taste := e.buildTaste(history)

	// 4词中2词命中:50
	c := Candidate{
		Source:      "Blog",
		Tokens:      []string{"rust", "async", "runtime", "scheduler"},
		PublishedAt: fixedNow(),
	}
	if b := e.score(c, taste, fixedNow()); b.Similarity != 50 {
		t.Errorf("similarity = %v, want 50", b.Similarity)
	}

	// 无重叠为0
	none := Candidate{Source: "Blog", Tokens: []string{"cooking"}, PublishedAt: fixedNow()}
	if b := e.score(none, taste, fixedNow()); b.Similarity != 0 {
		t.Errorf("similarity = %v, want 0", b.Similarity)
	}
}

func TestTopicAndSourceSignals(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	history := []Liked{
		{Source: "A", Topics: []TopicRelevance{{Name: "ai", Relevance: 1}}},
		{Source: "A", Topics: []TopicRelevance{{Name: "ai", Relevance: 0.8}}},
		{Source: "B", Topics: []TopicRelevance{{Name: "db", Relevance: 0.5}}},
	}
	taste := e.buildTaste(history)

	c := Candidate{
		Source:      "A",
		Topics:      []TopicRelevance{{Name: "ai", Relevance: 0.9}, {Name: "db", Relevance: 1}},
		PublishedAt: fixedNow(),
	}
	b := e.score(c, taste, fixedNow())

	// 0.9×20 + 1×20 = 38
	if b.TopicAffinity != 38 {
		t.Errorf("topic affinity = %v, want 38", b.TopicAffinity)
	}
	if b.SourceAffinity != 15 {
		t.Errorf("source affinity = %v, want 15", b.SourceAffinity)
	}

	// 主题加分上限40
	heavy := Candidate{
		Source: "C",
		Topics: []TopicRelevance{
			{Name: "ai", Relevance: 1}, {Name: "ai", Relevance: 1}, {Name: "ai", Relevance: 1},
		},
		PublishedAt: fixedNow(),
	}
	if b := e.score(heavy, taste, fixedNow()); b.TopicAffinity != 40 {
		t.Errorf("topic affinity = %v, want capped 40", b.TopicAffinity)
	}
}

func TestRecencySignal(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	taste := e.buildTaste(nil)

	tests := []struct {
		age  time.Duration
		want float64
	}{
		{0, 15},
		{24 * time.Hour, 7.5},
		{48 * time.Hour, 0},
		{72 * time.Hour, 0},
	}
	for _, tt := range tests {
		c := Candidate{Source: "S", PublishedAt: fixedNow().Add(-tt.age)}
		if b := e.score(c, taste, fixedNow()); b.Recency != tt.want {
			t.Errorf("age %v: recency = %v, want %v", tt.age, b.Recency, tt.want)
		}
	}
}

func TestRecommendOrderingAndTieBreak(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	older := Candidate{ArticleID: 1, Source: "X", BaseScore: 90, PublishedAt: fixedNow().Add(-3 * time.Hour)}
	newer := Candidate{ArticleID: 2, Source: "Y", BaseScore: 90, PublishedAt: fixedNow().Add(-1 * time.Hour)}
	weak := Candidate{ArticleID: 3, Source: "Z", BaseScore: 90, PublishedAt: fixedNow().Add(-40 * time.Hour)}

	got := e.Recommend([]Candidate{older, weak, newer}, nil, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got[0].ArticleID != 2 || got[1].ArticleID != 1 || got[2].ArticleID != 3 {
		t.Errorf("unexpected order: %d %d %d", got[0].ArticleID, got[1].ArticleID, got[2].ArticleID)
	}

	// 总分相同时,发布时间新者在前
	tieOld := Candidate{ArticleID: 4, Source: "T1", BaseScore: 90, PublishedAt: fixedNow().Add(-80 * time.Hour)}
	tieNew := Candidate{ArticleID: 5, Source: "T2", BaseScore: 90, PublishedAt: fixedNow().Add(-60 * time.Hour)}
	tied := e.Recommend([]Candidate{tieOld, tieNew}, nil, 10)
	if len(tied) != 2 || tied[0].ArticleID != 5 {
		t.Errorf("tie must break by recency descending, got %+v", tied)
	}
}

func TestRecommendLimit(t *testing.T) {
	e := testEngine(t, DefaultConfig())

	candidates := make([]Candidate, 10)
	for i := range candidates {
		candidates[i] = Candidate{
			ArticleID:   uint(i + 1),
			Source:      "Fresh",
			BaseScore:   80,
			PublishedAt: fixedNow().Add(-time.Duration(i) * time.Hour),
		}
	}
	if got := e.Recommend(candidates, nil, 3); len(got) != 3 {
		t.Errorf("limit not applied: got %d results", len(got))
	}
	if got := e.Recommend(candidates, nil, 0); len(got) != 0 {
		t.Errorf("limit 0 must return empty list, got %d", len(got))
	}
}

func TestReasonPicksDominantSignal(t *testing.T) {
	tests := []struct {
		name string
		b    Breakdown
		want string
	}{
		{"similarity wins", Breakdown{Similarity: 80, Recency: 10}, reasonSimilar},
		{"topic wins", Breakdown{TopicAffinity: 35, Similarity: 20}, reasonTopic},
		{"source wins", Breakdown{SourceAffinity: 15, Recency: 5}, reasonSource},
		{"serendipity wins", Breakdown{Serendipity: 20, Recency: 12}, reasonSerendipity},
		{"recency wins", Breakdown{Recency: 14, Serendipity: 0}, reasonRecency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.reason(); got != tt.want {
				t.Errorf("reason = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := DefaultConfig()
	bad.TopTopics = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero top_topics")
	}

	bad = DefaultConfig()
	bad.RecencyHorizon = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero recency horizon")
	}

	bad = DefaultConfig()
	bad.QualityFloor = 101
	if err := bad.Validate(); err == nil {
		t.Error("expected error for quality floor above 100")
	}
}
