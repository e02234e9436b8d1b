package rank

import (
	"fmt"
	"math"

	"github.com/rushteam/shoprec/core"
)

// Weights 是综合分各分项的权重。四项之和必须为 1.0。
// 这是可配置项（config 包从 YAML 加载并校验），不要在调用点散落魔法数。
type Weights struct {
	Content       float64 `yaml:"content" json:"content"`             // 内容相似度
	Preference    float64 `yaml:"preference" json:"preference"`       // 类目偏好
	Collaborative float64 `yaml:"collaborative" json:"collaborative"` // 协同过滤
	Popularity    float64 `yaml:"popularity" json:"popularity"`       // 全局热度
}

// DefaultWeights 返回默认权重：内容 0.40 / 偏好 0.20 / 协同 0.30 / 热度 0.10。
func DefaultWeights() Weights {
	return Weights{
		Content:       0.40,
		Preference:    0.20,
		Collaborative: 0.30,
		Popularity:    0.10,
	}
}

// Validate 校验权重非负且总和为 1.0（浮点容差 1e-9）。
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"content":       w.Content,
		"preference":    w.Preference,
		"collaborative": w.Collaborative,
		"popularity":    w.Popularity,
	} {
		if v < 0 {
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
				fmt.Sprintf("rank: weight %s is negative: %v", name, v))
		}
	}
	sum := w.Content + w.Preference + w.Collaborative + w.Popularity
	if math.Abs(sum-1.0) > 1e-9 {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("rank: weights sum to %v, want 1.0", sum))
	}
	return nil
}

// Blend 按权重把分项明细折算为综合分。
func (w Weights) Blend(b core.Breakdown) float64 {
	return w.Content*b.Content +
		w.Preference*b.Preference +
		w.Collaborative*b.Collaborative +
		w.Popularity*b.Popularity
}
