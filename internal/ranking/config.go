package ranking

import "fmt"

// DiversityLevel 多样性等级,控制同源/同主题连续出现的上限
type DiversityLevel string

const (
	DiversityLow    DiversityLevel = "low"
	DiversityMedium DiversityLevel = "medium"
	DiversityHigh   DiversityLevel = "high"
)

// ParseDiversityLevel 解析多样性等级,空值取medium
func ParseDiversityLevel(s string) (DiversityLevel, error) {
	switch DiversityLevel(s) {
	case DiversityLow, DiversityMedium, DiversityHigh:
		return DiversityLevel(s), nil
	case "":
		return DiversityMedium, nil
	}
	return "", fmt.Errorf("unknown diversity level: %q", s)
}

// ProfileConfig 用户画像构建参数
type ProfileConfig struct {
	HistorySize  int     `yaml:"history_size" json:"history_size"` // 最近参与行为条数K
	ReadWeight   float64 `yaml:"read_weight" json:"read_weight"`
	UpvoteWeight float64 `yaml:"upvote_weight" json:"upvote_weight"`
	SaveWeight   float64 `yaml:"save_weight" json:"save_weight"`
}

// ScorerConfig 个性化打分参数,全部上限可配置
type ScorerConfig struct {
	BaseWeight  float64 `yaml:"base_weight" json:"base_weight"`   // 基础分权重
	SourceUnit  float64 `yaml:"source_unit" json:"source_unit"`   // 单位来源亲和度加分
	SourceCap   float64 `yaml:"source_cap" json:"source_cap"`     // 来源加分上限
	KeywordUnit float64 `yaml:"keyword_unit" json:"keyword_unit"` // 单位关键词亲和度加分
	KeywordCap  float64 `yaml:"keyword_cap" json:"keyword_cap"`   // 关键词加分上限
}

// DiversityConfig 各等级的同源连续上限,同主题上限=同源上限+TopicRunExtra
type DiversityConfig struct {
	LowSourceRun    int `yaml:"low_source_run" json:"low_source_run"`
	MediumSourceRun int `yaml:"medium_source_run" json:"medium_source_run"`
	HighSourceRun   int `yaml:"high_source_run" json:"high_source_run"`
	TopicRunExtra   int `yaml:"topic_run_extra" json:"topic_run_extra"`
}

// SourceRunCap 返回等级对应的同源连续上限
func (c DiversityConfig) SourceRunCap(level DiversityLevel) int {
	switch level {
	case DiversityLow:
		return c.LowSourceRun
	case DiversityHigh:
		return c.HighSourceRun
	}
	return c.MediumSourceRun
}

// Config 排序引擎配置
type Config struct {
	Profile   ProfileConfig   `yaml:"profile" json:"profile"`
	Scorer    ScorerConfig    `yaml:"scorer" json:"scorer"`
	Diversity DiversityConfig `yaml:"diversity" json:"diversity"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Profile: ProfileConfig{
			HistorySize:  20,
			ReadWeight:   1,
			UpvoteWeight: 2,
			SaveWeight:   2,
		},
		Scorer: ScorerConfig{
			BaseWeight:  0.5,
			SourceUnit:  10,
			SourceCap:   50,
			KeywordUnit: 5,
			KeywordCap:  30,
		},
		Diversity: DiversityConfig{
			LowSourceRun:    5,
			MediumSourceRun: 3,
			HighSourceRun:   2,
			TopicRunExtra:   1,
		},
	}
}

// Validate 校验配置合法性
func (c Config) Validate() error {
	if c.Profile.HistorySize <= 0 {
		return fmt.Errorf("profile.history_size must be positive, got %d", c.Profile.HistorySize)
	}
	if c.Scorer.BaseWeight < 0 || c.Scorer.BaseWeight > 1 {
		return fmt.Errorf("scorer.base_weight must be in [0,1], got %v", c.Scorer.BaseWeight)
	}
	if c.Scorer.SourceCap < 0 || c.Scorer.KeywordCap < 0 {
		return fmt.Errorf("scorer caps must be non-negative")
	}
	for _, run := range []int{c.Diversity.LowSourceRun, c.Diversity.MediumSourceRun, c.Diversity.HighSourceRun} {
		if run < 1 {
			return fmt.Errorf("diversity run caps must be at least 1")
		}
	}
	if c.Diversity.TopicRunExtra < 0 {
		return fmt.Errorf("diversity.topic_run_extra must be non-negative")
	}
	return nil
}
