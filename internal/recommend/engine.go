package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// TopicRelevance 文章主题及其相关度
type TopicRelevance struct {
	Name      string
	Relevance float64
}

// Candidate 未读候选文章的打分视图
type Candidate struct {
	ArticleID   uint
	Source      string
	Tokens      []string
	Topics      []TopicRelevance
	BaseScore   int
	PublishedAt time.Time
}

// Liked 用户参与过的文章,作为推荐的历史依据
type Liked struct {
	Source string
	Tokens []string
	Topics []TopicRelevance
}

// Breakdown 五路信号各自的得分,用于前端解释
type Breakdown struct {
	Similarity     float64 `json:"similarity"`
	TopicAffinity  float64 `json:"topic_affinity"`
	SourceAffinity float64 `json:"source_affinity"`
	Serendipity    float64 `json:"serendipity"`
	Recency        float64 `json:"recency"`
}

// Recommendation 单条推荐结果
type Recommendation struct {
	ArticleID   uint      `json:"article_id"`
	Score       float64   `json:"score"`
	Reason      string    `json:"reason"`
	Breakdown   Breakdown `json:"breakdown"`
	PublishedAt time.Time `json:"published_at"`
}

// 各信号对应的推荐理由,取最高分信号的文案
const (
	reasonSimilar     = "similar to articles you liked"
	reasonTopic       = "matches your topic interests"
	reasonSource      = "from a source you follow closely"
	reasonSerendipity = "something new worth discovering"
	reasonRecency     = "fresh off the press"
)

// Engine 五信号推荐引擎,纯计算,历史为空时退化为发现+新鲜度
type Engine struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}
}

// userTaste 从参与历史预聚合的用户口味
type userTaste struct {
	likedTokens map[string]struct{}
	topTopics   map[string]struct{}
	topSources  map[string]struct{}
	allSources  map[string]struct{}
}

func (e *Engine) buildTaste(history []Liked) userTaste {
	taste := userTaste{
		likedTokens: make(map[string]struct{}),
		topTopics:   make(map[string]struct{}),
		topSources:  make(map[string]struct{}),
		allSources:  make(map[string]struct{}),
	}

	topicCount := make(map[string]int)
	sourceCount := make(map[string]int)
	for _, l := range history {
		for _, t := range l.Tokens {
			taste.likedTokens[t] = struct{}{}
		}
		for _, tp := range l.Topics {
			topicCount[tp.Name]++
		}
		if l.Source != "" {
			sourceCount[l.Source]++
			taste.allSources[l.Source] = struct{}{}
		}
	}

	for _, name := range topN(topicCount, e.cfg.TopTopics) {
		taste.topTopics[name] = struct{}{}
	}
	for _, name := range topN(sourceCount, e.cfg.TopSources) {
		taste.topSources[name] = struct{}{}
	}
	return taste
}

// topN 按计数降序取前n个key,计数相同按名称排序保证确定性
func topN(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func (e *Engine) score(c Candidate, taste userTaste, now time.Time) Breakdown {
	var b Breakdown

	// 信号1:与已喜欢文章的词重叠率
	if len(taste.likedTokens) > 0 && len(c.Tokens) > 0 {
		distinct := make(map[string]struct{}, len(c.Tokens))
		overlap := 0
		for _, t := range c.Tokens {
			if _, seen := distinct[t]; seen {
				continue
			}
			distinct[t] = struct{}{}
			if _, ok := taste.likedTokens[t]; ok {
				overlap++
			}
		}
		ratio := float64(overlap) / float64(len(distinct))
		b.Similarity = math.Min(e.cfg.SimilarityCap, ratio*e.cfg.SimilarityCap)
	}

	// 信号2:候选主题命中用户top主题,按relevance加权
	var topicSum float64
	for _, tp := range c.Topics {
		if _, ok := taste.topTopics[tp.Name]; ok {
			topicSum += tp.Relevance * e.cfg.TopicUnit
		}
	}
	b.TopicAffinity = math.Min(e.cfg.TopicCap, topicSum)

	// 信号3:候选来自用户top来源
	if _, ok := taste.topSources[c.Source]; ok {
		b.SourceAffinity = e.cfg.SourceBonus
	}

	// 信号4:陌生来源的发现加分,基础分达标才给,避免推低质未知源
	if _, known := taste.allSources[c.Source]; !known && c.BaseScore >= e.cfg.QualityFloor {
		b.Serendipity = e.cfg.SerendipityBonus
	}

	// 信号5:新鲜度线性衰减,超出窗口归零
	age := now.Sub(c.PublishedAt)
	if age < 0 {
		age = 0
	}
	if age < e.cfg.RecencyHorizon {
		b.Recency = e.cfg.RecencyBonus * (1 - float64(age)/float64(e.cfg.RecencyHorizon))
	}

	return b
}

func (b Breakdown) total() float64 {
	return b.Similarity + b.TopicAffinity + b.SourceAffinity + b.Serendipity + b.Recency
}

// reason 取得分最高的信号文案,顺序固定保证平局时结果稳定
func (b Breakdown) reason() string {
	best, label := b.Similarity, reasonSimilar
	if b.TopicAffinity > best {
		best, label = b.TopicAffinity, reasonTopic
	}
	if b.SourceAffinity > best {
		best, label = b.SourceAffinity, reasonSource
	}
	if b.Serendipity > best {
		best, label = b.Serendipity, reasonSerendipity
	}
	if b.Recency > best {
		label = reasonRecency
	}
	return label
}

// Recommend 对候选打分排序,过滤总分不超过ScoreFloor的弱信号结果
// 历史为空时只剩发现和新鲜度两路信号,属于冷启动的正常退化而非错误
func (e *Engine) Recommend(candidates []Candidate, history []Liked, limit int) []Recommendation {
	if limit <= 0 || len(candidates) == 0 {
		return []Recommendation{}
	}

	taste := e.buildTaste(history)
	now := e.now()

	results := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		b := e.score(c, taste, now)
		total := b.total()
		if total <= e.cfg.ScoreFloor {
			continue
		}
		results = append(results, Recommendation{
			ArticleID:   c.ArticleID,
			Score:       math.Round(total*100) / 100,
			Reason:      b.reason(),
			Breakdown:   b,
			PublishedAt: c.PublishedAt,
		})
	}

	// 总分降序,平局按发布时间新者优先
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PublishedAt.After(results[j].PublishedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}

	e.logger.Debug().
		Int("candidates", len(candidates)).
		Int("history", len(history)).
		Int("returned", len(results)).
		Msg("recommendations computed")

	return results
}
