package ranking

import "math"

// Scorer 个性化打分器,纯函数,相同输入必得相同输出
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score 计算个性化分数:基础分半权 + 来源加分 + 关键词加分,最终截断到[0,100]
// 画像为空时退化为round(BaseWeight×baseScore),保持基础分排序不变
func (s *Scorer) Score(source string, tokens []string, baseScore int, p Profile) int {
	sourceBonus := math.Min(s.cfg.SourceCap, s.cfg.SourceUnit*p.SourceAffinity[source])

	var keywordSum float64
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		keywordSum += p.KeywordAffinity[t]
	}
	keywordBonus := math.Min(s.cfg.KeywordCap, s.cfg.KeywordUnit*keywordSum)

	final := math.Round(s.cfg.BaseWeight*float64(baseScore) + sourceBonus + keywordBonus)
	return clampScore(int(final))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
