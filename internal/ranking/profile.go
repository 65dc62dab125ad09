package ranking

// Engagement 一条参与行为,已关联文章元数据
type Engagement struct {
	Action      string // read / upvote / save
	Source      string
	Title       string
	Description string
}

// Profile 用户画像,权重为原始累加值,不做归一化
// 两个map都为空表示无个性化数据,调用方退回基础分排序
type Profile struct {
	SourceAffinity  map[string]float64
	KeywordAffinity map[string]float64
}

// Empty 是否无任何个性化信号
func (p Profile) Empty() bool {
	return len(p.SourceAffinity) == 0 && len(p.KeywordAffinity) == 0
}

// ProfileBuilder 从参与行为历史构建用户画像,纯计算无副作用
type ProfileBuilder struct {
	cfg ProfileConfig
}

func NewProfileBuilder(cfg ProfileConfig) *ProfileBuilder {
	return &ProfileBuilder{cfg: cfg}
}

func (b *ProfileBuilder) weight(action string) float64 {
	switch action {
	case "upvote":
		return b.cfg.UpvoteWeight
	case "save":
		return b.cfg.SaveWeight
	case "read":
		return b.cfg.ReadWeight
	}
	return 0
}

// Build 累加来源亲和度和关键词亲和度
// 关键词按文章去重,同一篇文章内重复出现的词只计一次
func (b *ProfileBuilder) Build(history []Engagement) Profile {
	p := Profile{
		SourceAffinity:  make(map[string]float64),
		KeywordAffinity: make(map[string]float64),
	}

	for _, e := range history {
		w := b.weight(e.Action)
		if w == 0 {
			continue
		}

		if e.Source != "" {
			p.SourceAffinity[e.Source] += w
		}

		for token := range TokenSet(e.Title + " " + e.Description) {
			p.KeywordAffinity[token] += w
		}
	}
	return p
}
