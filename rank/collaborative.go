package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// CollaborativeScorer 是协同过滤打分器（User-based CF 的轻量变体）。
//
// 核心思想："和你喜欢过同一批商品的用户，他们喜欢的商品你也可能喜欢"
//
// 算法流程：
//  1. 取目标用户的 like 集合
//  2. 相似用户 = 与目标用户 like 集合有交集的其他用户
//  3. 候选分 = 喜欢该候选的相似用户占相似用户总数的比例，天然落在 [0,1]
//
// 边界情况全部优雅降级为 0：用户无 like、无相似用户、候选无人喜欢。
// 计算是集合语义，与遍历顺序无关。
type CollaborativeScorer struct {
	Interactions core.InteractionReader
}

// SimilarUsers 返回与目标用户 like 集合有交集的用户集合（不含目标用户）。
// 单次请求内只需计算一次，之后对每个候选调用 ScoreWith。
func (s *CollaborativeScorer) SimilarUsers(ctx context.Context, userID string) (map[string]struct{}, error) {
	if s.Interactions == nil || userID == "" {
		return nil, nil
	}

	mine, err := s.Interactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	liked := make([]string, 0, len(mine))
	for _, it := range mine {
		if it.Kind == core.KindLike {
			liked = append(liked, it.ProductID)
		}
	}
	if len(liked) == 0 {
		return nil, nil
	}

	similar := make(map[string]struct{})
	for _, productID := range liked {
		others, err := s.Interactions.ListByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		for _, it := range others {
			if it.Kind == core.KindLike && it.UserID != userID {
				similar[it.UserID] = struct{}{}
			}
		}
	}
	return similar, nil
}

// ScoreWith 用预先算好的相似用户集合给单个候选打分。
func (s *CollaborativeScorer) ScoreWith(
	ctx context.Context,
	similar map[string]struct{},
	productID string,
) (float64, error) {
	if s.Interactions == nil || len(similar) == 0 {
		return 0, nil
	}

	likers, err := s.Interactions.ListByProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	hits := 0
	for _, it := range likers {
		if it.Kind != core.KindLike {
			continue
		}
		if _, ok := similar[it.UserID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(similar)), nil
}

// Score 是一次性的便捷入口：先找相似用户，再给候选打分。
// 批量打分时用 SimilarUsers + ScoreWith 避免重复计算。
func (s *CollaborativeScorer) Score(ctx context.Context, userID, productID string) (float64, error) {
	similar, err := s.SimilarUsers(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.ScoreWith(ctx, similar, productID)
}
