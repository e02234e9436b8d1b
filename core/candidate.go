package core

// Candidate 是推荐链路中的统一承载结构：分数、分项、元信息、标签。
// Breakdown 用于解释与调试；Score 用于排序决策。
type Candidate struct {
	ID        string
	Score     float64
	Breakdown Breakdown
	Meta      map[string]any
	Labels    map[string]Label
}

// Breakdown 是综合分的分项明细，与 rank.Weights 一一对应。
type Breakdown struct {
	Content       float64 `json:"content"`       // 内容相似度（锚点相似度行）
	Preference    float64 `json:"preference"`    // 用户对候选类目的历史偏好
	Collaborative float64 `json:"collaborative"` // 协同过滤分
	Popularity    float64 `json:"popularity"`    // 全局热度分
}

func NewCandidate(id string) *Candidate {
	return &Candidate{
		ID:     id,
		Meta:   make(map[string]any),
		Labels: make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义，这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank ...
}

// MergeLabel 用于合并同名 Label，遵循"保留历史、可追踪"的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
