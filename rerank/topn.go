package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TopN 是截断 Node：在 Rank 之后截取前 N 个候选。
// N <= 0 或候选数不足 N 时原样返回。
type TopN struct {
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.Query,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.N <= 0 || len(candidates) <= n.N {
		return candidates, nil
	}
	return candidates[:n.N], nil
}
