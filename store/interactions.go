package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/shoprec/core"
)

// InteractionLog 是行为数据的存取实现：
// 读侧实现 core.InteractionReader（供推荐核心消费），
// 写侧实现 like/dislike 的 toggle 状态机与 view/purchase 的幂等 upsert。
//
// 存储布局（基于 core.KeyValueStore）：
//   - {prefix}:user:{userID}      Hash，field = {productID}/{kind}，value = JSON Interaction
//   - {prefix}:product:{productID} Hash，field = {userID}/{kind}，value = JSON Interaction
//   - {prefix}:counts              SortedSet，member = kind，score = 全局计数
//
// 约束（由 Apply 保证）：
//   - 每个 (user, product, kind) 至多一条记录
//   - like 与 dislike 互斥：写入一方前先清除另一方
//   - 重复的 like/dislike 动作撤销已有记录（toggle）
type InteractionLog struct {
	store core.KeyValueStore

	// KeyPrefix 是存储 key 的前缀，默认 "interactions"
	KeyPrefix string
}

// NewInteractionLog 创建行为日志。
func NewInteractionLog(kv core.KeyValueStore, keyPrefix string) *InteractionLog {
	if keyPrefix == "" {
		keyPrefix = "interactions"
	}
	return &InteractionLog{store: kv, KeyPrefix: keyPrefix}
}

var _ core.InteractionReader = (*InteractionLog)(nil)

func (l *InteractionLog) userKey(userID string) string {
	return l.KeyPrefix + ":user:" + userID
}

func (l *InteractionLog) productKey(productID string) string {
	return l.KeyPrefix + ":product:" + productID
}

func (l *InteractionLog) countsKey() string {
	return l.KeyPrefix + ":counts"
}

// Apply 记录一次用户动作并返回该 (user, product) 的最新喜好状态。
//
//   - view / purchase：幂等 upsert，重复动作不产生新记录
//   - like / dislike：按 core.FeedbackState 状态机流转（重复动作撤销、互斥清除）
func (l *InteractionLog) Apply(
	ctx context.Context,
	userID, productID string,
	action core.InteractionKind,
) (core.FeedbackState, error) {
	if !action.Valid() {
		return core.FeedbackNone, core.NewDomainError(core.ModuleInteraction, core.ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: unknown kind %q", action))
	}
	if userID == "" || productID == "" {
		return core.FeedbackNone, core.NewDomainError(core.ModuleInteraction, core.ErrorCodeInvalidInput,
			"interaction: user and product are required")
	}

	switch action {
	case core.KindLike, core.KindDislike:
		return l.applyFeedback(ctx, userID, productID, action)
	default:
		if err := l.applyIdempotent(ctx, userID, productID, action); err != nil {
			return core.FeedbackNone, err
		}
		return l.Feedback(ctx, userID, productID)
	}
}

// Feedback 返回 (user, product) 的当前喜好状态。
func (l *InteractionLog) Feedback(ctx context.Context, userID, productID string) (core.FeedbackState, error) {
	for _, kind := range []core.InteractionKind{core.KindLike, core.KindDislike} {
		_, err := l.store.HGet(ctx, l.userKey(userID), field(productID, kind))
		if err == nil {
			if kind == core.KindLike {
				return core.FeedbackLiked, nil
			}
			return core.FeedbackDisliked, nil
		}
		if !core.IsStoreNotFound(err) {
			return core.FeedbackNone, err
		}
	}
	return core.FeedbackNone, nil
}

func (l *InteractionLog) applyIdempotent(ctx context.Context, userID, productID string, kind core.InteractionKind) error {
	_, err := l.store.HGet(ctx, l.userKey(userID), field(productID, kind))
	if err == nil {
		return nil // 已存在，保持首次记录
	}
	if !core.IsStoreNotFound(err) {
		return err
	}
	return l.put(ctx, core.Interaction{
		UserID:    userID,
		ProductID: productID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	})
}

func (l *InteractionLog) applyFeedback(ctx context.Context, userID, productID string, action core.InteractionKind) (core.FeedbackState, error) {
	cur, err := l.Feedback(ctx, userID, productID)
	if err != nil {
		return core.FeedbackNone, err
	}
	next := cur.Next(action)
	if next == cur {
		return cur, nil
	}

	// 清除当前反馈记录（互斥约束：最多一条）
	if cur != core.FeedbackNone {
		if err := l.remove(ctx, userID, productID, kindOf(cur)); err != nil {
			return cur, err
		}
	}
	if next != core.FeedbackNone {
		if err := l.put(ctx, core.Interaction{
			UserID:    userID,
			ProductID: productID,
			Kind:      kindOf(next),
			Timestamp: time.Now().UTC(),
		}); err != nil {
			return cur, err
		}
	}
	return next, nil
}

func (l *InteractionLog) put(ctx context.Context, it core.Interaction) error {
	data, err := json.Marshal(it)
	if err != nil {
		return err
	}
	if err := l.store.HSet(ctx, l.userKey(it.UserID), field(it.ProductID, it.Kind), data); err != nil {
		return err
	}
	if err := l.store.HSet(ctx, l.productKey(it.ProductID), field(it.UserID, it.Kind), data); err != nil {
		return err
	}
	return l.store.ZIncrBy(ctx, l.countsKey(), 1, string(it.Kind))
}

func (l *InteractionLog) remove(ctx context.Context, userID, productID string, kind core.InteractionKind) error {
	if err := l.store.HDel(ctx, l.userKey(userID), field(productID, kind)); err != nil {
		return err
	}
	if err := l.store.HDel(ctx, l.productKey(productID), field(userID, kind)); err != nil {
		return err
	}
	return l.store.ZIncrBy(ctx, l.countsKey(), -1, string(kind))
}

// ListByUser 实现 core.InteractionReader。
func (l *InteractionLog) ListByUser(ctx context.Context, userID string) ([]core.Interaction, error) {
	return l.list(ctx, l.userKey(userID))
}

// ListByProduct 实现 core.InteractionReader。
func (l *InteractionLog) ListByProduct(ctx context.Context, productID string) ([]core.Interaction, error) {
	return l.list(ctx, l.productKey(productID))
}

func (l *InteractionLog) list(ctx context.Context, key string) ([]core.Interaction, error) {
	fields, err := l.store.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]core.Interaction, 0, len(fields))
	for _, data := range fields {
		var it core.Interaction
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	// Hash 遍历无序，排序保证输出确定
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

// CountByKind 实现 core.InteractionReader。
func (l *InteractionLog) CountByKind(ctx context.Context) (map[core.InteractionKind]int64, error) {
	out := make(map[core.InteractionKind]int64, 4)
	for _, kind := range []core.InteractionKind{core.KindView, core.KindLike, core.KindDislike, core.KindPurchase} {
		score, err := l.store.ZScore(ctx, l.countsKey(), string(kind))
		if err != nil {
			if core.IsStoreNotFound(err) {
				out[kind] = 0
				continue
			}
			return nil, err
		}
		out[kind] = int64(score)
	}
	return out, nil
}

func field(id string, kind core.InteractionKind) string {
	return id + "/" + string(kind)
}

func kindOf(s core.FeedbackState) core.InteractionKind {
	if s == core.FeedbackDisliked {
		return core.KindDislike
	}
	return core.KindLike
}
