package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Interacted 过滤掉用户已经发生过指定行为的商品。
// 典型用法：Kinds = [purchase]，已购商品不再推荐。
// 请求不带用户时不做任何过滤。
type Interacted struct {
	Interactions core.InteractionReader

	// Kinds 命中任一行为类型即过滤；为空时默认只看 purchase
	Kinds []core.InteractionKind
}

func (f *Interacted) Name() string { return "filter.interacted" }

func (f *Interacted) ShouldFilter(
	ctx context.Context,
	query *core.Query,
	c *core.Candidate,
) (bool, error) {
	if f.Interactions == nil || !query.Personalized() || c == nil {
		return false, nil
	}

	kinds := f.Kinds
	if len(kinds) == 0 {
		kinds = []core.InteractionKind{core.KindPurchase}
	}

	interactions, err := f.Interactions.ListByUser(ctx, query.UserID)
	if err != nil {
		return false, err
	}
	for _, it := range interactions {
		if it.ProductID != c.ID {
			continue
		}
		for _, k := range kinds {
			if it.Kind == k {
				return true, nil
			}
		}
	}
	return false, nil
}
