package recommend

import (
	"fmt"
	"time"
)

// Config 推荐引擎配置,五路信号的上限与门槛全部可调
type Config struct {
	SimilarityCap    float64       `yaml:"similarity_cap" json:"similarity_cap"`       // 相似度信号上限
	TopicCap         float64       `yaml:"topic_cap" json:"topic_cap"`                 // 主题亲和信号上限
	TopicUnit        float64       `yaml:"topic_unit" json:"topic_unit"`               // 单位relevance加分
	TopTopics        int           `yaml:"top_topics" json:"top_topics"`               // 参与匹配的用户主题数
	SourceBonus      float64       `yaml:"source_bonus" json:"source_bonus"`           // 偏好来源加分
	TopSources       int           `yaml:"top_sources" json:"top_sources"`             // 参与匹配的偏好来源数
	SerendipityBonus float64       `yaml:"serendipity_bonus" json:"serendipity_bonus"` // 陌生来源发现加分
	QualityFloor     int           `yaml:"quality_floor" json:"quality_floor"`         // 发现加分要求的基础分下限
	RecencyBonus     float64       `yaml:"recency_bonus" json:"recency_bonus"`         // 新鲜度信号上限
	RecencyHorizon   time.Duration `yaml:"recency_horizon" json:"recency_horizon"`     // 新鲜度窗口
	ScoreFloor       float64       `yaml:"score_floor" json:"score_floor"`             // 总分低于等于此值的候选被过滤
	CandidateBuffer  int           `yaml:"candidate_buffer" json:"candidate_buffer"`   // 候选池额外余量
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		SimilarityCap:    100,
		TopicCap:         40,
		TopicUnit:        20,
		TopTopics:        5,
		SourceBonus:      15,
		TopSources:       3,
		SerendipityBonus: 20,
		QualityFloor:     60,
		RecencyBonus:     15,
		RecencyHorizon:   48 * time.Hour,
		ScoreFloor:       10,
		CandidateBuffer:  20,
	}
}

// Validate 校验配置合法性
func (c Config) Validate() error {
	if c.SimilarityCap < 0 || c.TopicCap < 0 || c.SourceBonus < 0 ||
		c.SerendipityBonus < 0 || c.RecencyBonus < 0 {
		return fmt.Errorf("signal caps must be non-negative")
	}
	if c.TopTopics <= 0 {
		return fmt.Errorf("top_topics must be positive, got %d", c.TopTopics)
	}
	if c.TopSources <= 0 {
		return fmt.Errorf("top_sources must be positive, got %d", c.TopSources)
	}
	if c.QualityFloor < 0 || c.QualityFloor > 100 {
		return fmt.Errorf("quality_floor must be in [0,100], got %d", c.QualityFloor)
	}
	if c.RecencyHorizon <= 0 {
		return fmt.Errorf("recency_horizon must be positive, got %v", c.RecencyHorizon)
	}
	if c.CandidateBuffer < 0 {
		return fmt.Errorf("candidate_buffer must be non-negative, got %d", c.CandidateBuffer)
	}
	return nil
}
