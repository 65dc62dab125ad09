package ranking

// RankedArticle 参与重排的最小文章视图
type RankedArticle struct {
	ID     uint
	Source string
	Topic  string // 主要主题,可为空
	Score  int
}

// ReRanker 多样性重排器
// 输入已按个性化分数降序,单次从左到右贪心放置,超限的候选进入暂存队列,
// 主遍历结束后按原顺序回填,全程不丢弃任何文章
type ReRanker struct {
	cfg DiversityConfig
}

func NewReRanker(cfg DiversityConfig) *ReRanker {
	return &ReRanker{cfg: cfg}
}

// runState 跟踪最近放置的来源/主题连续次数
type runState struct {
	lastSource string
	sourceRun  int
	lastTopic  string
	topicRun   int
}

func (r *runState) admits(a RankedArticle, sourceCap, topicCap int) bool {
	if a.Source == r.lastSource && r.sourceRun >= sourceCap {
		return false
	}
	if a.Topic != "" && a.Topic == r.lastTopic && r.topicRun >= topicCap {
		return false
	}
	return true
}

func (r *runState) place(a RankedArticle) {
	if a.Source == r.lastSource {
		r.sourceRun++
	} else {
		r.lastSource = a.Source
		r.sourceRun = 1
	}
	if a.Topic != "" && a.Topic == r.lastTopic {
		r.topicRun++
	} else {
		r.lastTopic = a.Topic
		r.topicRun = 1
	}
}

// ReRank 按多样性等级限制同源/同主题连续长度,输出条数恒等于输入条数
func (r *ReRanker) ReRank(items []RankedArticle, level DiversityLevel) []RankedArticle {
	if len(items) <= 1 {
		return items
	}

	sourceCap := r.cfg.SourceRunCap(level)
	topicCap := sourceCap + r.cfg.TopicRunExtra

	out := make([]RankedArticle, 0, len(items))
	var state runState

	// 主遍历:按分数顺序放置,不合格的下标暂存
	deferred := make([]int, 0)
	for i := range items {
		if state.admits(items[i], sourceCap, topicCap) {
			state.place(items[i])
			out = append(out, items[i])
		} else {
			deferred = append(deferred, i)
		}
	}

	// 回填:每轮取暂存队列中第一个合格的候选,保持原有相对顺序
	// 全部不合格时放宽上限直接放置队首,内容可用性优先于严格多样性
	for len(deferred) > 0 {
		placed := -1
		for j, idx := range deferred {
			if state.admits(items[idx], sourceCap, topicCap) {
				placed = j
				break
			}
		}
		if placed < 0 {
			placed = 0
		}
		state.place(items[deferred[placed]])
		out = append(out, items[deferred[placed]])
		deferred = append(deferred[:placed], deferred[placed+1:]...)
	}

	return out
}
