package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// PopularityWeights 是热度分中各行为类型的计数权重。
// dislike 不计入热度；其余默认值体现"购买 > 喜欢 > 浏览"的强度排序。
type PopularityWeights struct {
	View     float64 `yaml:"view" json:"view"`
	Like     float64 `yaml:"like" json:"like"`
	Purchase float64 `yaml:"purchase" json:"purchase"`
}

// DefaultPopularityWeights 返回默认的行为计数权重。
func DefaultPopularityWeights() PopularityWeights {
	return PopularityWeights{View: 1, Like: 3, Purchase: 5}
}

// weightOf 返回某行为类型的计数权重。
func (w PopularityWeights) weightOf(kind core.InteractionKind) float64 {
	switch kind {
	case core.KindView:
		return w.View
	case core.KindLike:
		return w.Like
	case core.KindPurchase:
		return w.Purchase
	}
	return 0
}

// categoryTaste 是用户在单个类目上的喜好统计。
type categoryTaste struct {
	likes    int
	dislikes int
}

// preferenceProfile 是按类目聚合的用户偏好画像，单次请求构建一次。
type preferenceProfile struct {
	byCategory map[string]categoryTaste
	totalLikes int
}

// buildPreferenceProfile 从用户行为记录构建类目偏好画像。
// categoryOf 把商品 ID 解析为类目（一般来自引擎的目录快照）。
func buildPreferenceProfile(
	ctx context.Context,
	reader core.InteractionReader,
	userID string,
	categoryOf func(productID string) (string, bool),
) (*preferenceProfile, error) {
	profile := &preferenceProfile{byCategory: make(map[string]categoryTaste)}
	if reader == nil || userID == "" || categoryOf == nil {
		return profile, nil
	}

	interactions, err := reader.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, it := range interactions {
		if it.Kind != core.KindLike && it.Kind != core.KindDislike {
			continue
		}
		cat, ok := categoryOf(it.ProductID)
		if !ok {
			continue // 商品已下架等情况，跳过
		}
		taste := profile.byCategory[cat]
		if it.Kind == core.KindLike {
			taste.likes++
			profile.totalLikes++
		} else {
			taste.dislikes++
		}
		profile.byCategory[cat] = taste
	}
	return profile, nil
}

// score 返回用户对某类目的偏好分 [0,1]：
// 喜欢多于不喜欢的类目按 like 占比加分；不喜欢占优或无历史的类目为 0
// （差评类目归零而非负分，保证个性化不会把分数压到内容基线之下）。
func (p *preferenceProfile) score(category string) float64 {
	if p == nil || p.totalLikes == 0 {
		return 0
	}
	taste, ok := p.byCategory[category]
	if !ok {
		return 0
	}
	net := taste.likes - taste.dislikes
	if net <= 0 {
		return 0
	}
	return float64(net) / float64(p.totalLikes)
}

// engagement 返回商品的加权互动量（未归一化）。
func engagement(interactions []core.Interaction, w PopularityWeights) float64 {
	var sum float64
	for _, it := range interactions {
		sum += w.weightOf(it.Kind)
	}
	return sum
}
