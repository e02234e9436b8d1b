package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// SimilarityRow 提供锚点商品在缓存相似度矩阵中的一行。
// 由引擎的目录快照实现；锚点不存在时返回 NOT_FOUND。
type SimilarityRow interface {
	// Row 返回与锚点对齐的 (候选商品 ID, 内容相似度) 序列，不含锚点自身
	Row(anchorID string) (ids []string, sims []float64, err error)
}

// AnchorSimilar 是内容召回 Node / Source：
// 以锚点商品的相似度行为候选集，相似度写入 Breakdown.Content。
//
// "看了这个，还可能看什么"——每个其他商品都是候选，
// 后续由 Rank 阶段融合行为信号决定最终顺位。
type AnchorSimilar struct {
	Rows SimilarityRow
}

func (r *AnchorSimilar) Name() string        { return "recall.anchor_similar" }
func (r *AnchorSimilar) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *AnchorSimilar) Process(
	ctx context.Context,
	query *core.Query,
	_ []*core.Candidate,
) ([]*core.Candidate, error) {
	return r.Recall(ctx, query)
}

// Recall 实现 Source 接口。
func (r *AnchorSimilar) Recall(
	_ context.Context,
	query *core.Query,
) ([]*core.Candidate, error) {
	if r.Rows == nil || query == nil {
		return nil, nil
	}

	ids, sims, err := r.Rows.Row(query.AnchorID)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Candidate, 0, len(ids))
	for i, id := range ids {
		c := core.NewCandidate(id)
		c.Breakdown.Content = sims[i]
		c.PutLabel("recall_source", core.Label{Value: "anchor_similar", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}
