package rank

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// Aggregator 是综合打分 Node：把内容相似度（召回阶段写入 Breakdown.Content）
// 与偏好分、协同分、热度分按固定权重合成综合分。
//
// - 请求不带用户时，偏好分与协同分为 0，排名由内容相似度和热度决定
// - 排序按综合分降序，分数相同时按商品 ID 升序，保证输出确定
// - 写入 labels：rank_weights
type Aggregator struct {
	Weights    Weights
	Popularity PopularityWeights

	// Interactions 为 nil 时所有行为分项为 0（纯内容推荐）
	Interactions core.InteractionReader

	// CategoryOf 把商品 ID 解析为类目，一般来自引擎的目录快照
	CategoryOf func(productID string) (string, bool)
}

func (n *Aggregator) Name() string        { return "rank.aggregate" }
func (n *Aggregator) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Aggregator) Process(
	ctx context.Context,
	query *core.Query,
	candidates []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	// 个性化信号：单次请求只构建一次
	var (
		profile *preferenceProfile
		similar map[string]struct{}
		err     error
	)
	cf := &CollaborativeScorer{Interactions: n.Interactions}
	if query.Personalized() && n.Interactions != nil {
		profile, err = buildPreferenceProfile(ctx, n.Interactions, query.UserID, n.CategoryOf)
		if err != nil {
			return nil, err
		}
		similar, err = cf.SimilarUsers(ctx, query.UserID)
		if err != nil {
			return nil, err
		}
	}

	// 热度：先算各候选的加权互动量，再按本批最大值归一化到 [0,1]
	engagements := make([]float64, len(candidates))
	var maxEngagement float64
	if n.Interactions != nil {
		for i, c := range candidates {
			interactions, err := n.Interactions.ListByProduct(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			engagements[i] = engagement(interactions, n.Popularity)
			if engagements[i] > maxEngagement {
				maxEngagement = engagements[i]
			}
		}
	}

	weightsLabel := core.Label{Value: "content/preference/collaborative/popularity", Source: "rank"}
	for i, c := range candidates {
		if maxEngagement > 0 {
			c.Breakdown.Popularity = engagements[i] / maxEngagement
		}
		if profile != nil && n.CategoryOf != nil {
			if cat, ok := n.CategoryOf(c.ID); ok {
				c.Breakdown.Preference = profile.score(cat)
			}
		}
		if len(similar) > 0 {
			score, err := cf.ScoreWith(ctx, similar, c.ID)
			if err != nil {
				return nil, err
			}
			c.Breakdown.Collaborative = score
		}
		c.Score = n.Weights.Blend(c.Breakdown)
		c.PutLabel("rank_weights", weightsLabel)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}
