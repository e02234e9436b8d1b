package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Filter 判定单个候选是否应被剔除。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, query *core.Query, c *core.Candidate) (bool, error)
}

// Node 是过滤 Node，可以组合多个过滤器。
// 任何一个过滤器命中，该候选就会被剔除；过滤器出错时跳过该过滤器，
// 不中断整条链路。
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string        { return "filter.node" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	query *core.Query,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(candidates) == 0 {
		return candidates, nil
	}

	out := make([]*core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}

		dropped := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, query, c)
			if err != nil {
				continue
			}
			if ok {
				dropped = true
				c.PutLabel("filtered", core.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if !dropped {
			out = append(out, c)
		}
	}
	return out, nil
}
