package core

import (
	"context"
	"time"
)

// InteractionKind 是用户行为类型。
type InteractionKind string

const (
	KindView     InteractionKind = "view"     // 浏览
	KindLike     InteractionKind = "like"     // 喜欢
	KindDislike  InteractionKind = "dislike"  // 不喜欢
	KindPurchase InteractionKind = "purchase" // 购买
)

// Valid 检查行为类型是否合法。
func (k InteractionKind) Valid() bool {
	switch k {
	case KindView, KindLike, KindDislike, KindPurchase:
		return true
	}
	return false
}

// Interaction 是一条用户-商品行为记录。
// 约束：同一 (user, product) 对每种 kind 至多存一条；like 与 dislike 互斥。
type Interaction struct {
	UserID    string          `json:"user_id"`
	ProductID string          `json:"product_id"`
	Kind      InteractionKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// InteractionReader 是行为数据的只读领域接口。
// 推荐核心只消费行为数据；写入（含 like/dislike 的 toggle 语义）由
// store.InteractionLog 承担。
type InteractionReader interface {
	// ListByUser 返回用户的全部行为记录
	ListByUser(ctx context.Context, userID string) ([]Interaction, error)

	// ListByProduct 返回商品收到的全部行为记录
	ListByProduct(ctx context.Context, productID string) ([]Interaction, error)

	// CountByKind 返回按行为类型聚合的全局计数
	CountByKind(ctx context.Context) (map[InteractionKind]int64, error)
}

// FeedbackState 是 (user, product) 对上喜好反馈的状态。
// like/dislike 的写入不是无脑 upsert，而是按此状态机流转：
//
//	none     --like-->    liked
//	none     --dislike--> disliked
//	liked    --like-->    none     （重复动作 = 撤销）
//	liked    --dislike--> disliked （互斥，先清除旧态）
//	disliked --dislike--> none
//	disliked --like-->    liked
type FeedbackState int

const (
	FeedbackNone FeedbackState = iota
	FeedbackLiked
	FeedbackDisliked
)

func (s FeedbackState) String() string {
	switch s {
	case FeedbackLiked:
		return "liked"
	case FeedbackDisliked:
		return "disliked"
	default:
		return "none"
	}
}

// Next 返回接收一个 like/dislike 动作后的下一个状态。
// 非反馈类动作（view/purchase）不改变喜好状态。
func (s FeedbackState) Next(action InteractionKind) FeedbackState {
	switch action {
	case KindLike:
		if s == FeedbackLiked {
			return FeedbackNone
		}
		return FeedbackLiked
	case KindDislike:
		if s == FeedbackDisliked {
			return FeedbackNone
		}
		return FeedbackDisliked
	}
	return s
}

// FeedbackOf 从一组行为记录推导 (user, product) 的当前喜好状态。
// 存储层保证 like/dislike 互斥，这里取第一条命中的反馈记录。
func FeedbackOf(interactions []Interaction) FeedbackState {
	for _, it := range interactions {
		switch it.Kind {
		case KindLike:
			return FeedbackLiked
		case KindDislike:
			return FeedbackDisliked
		}
	}
	return FeedbackNone
}
