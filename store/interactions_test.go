package store

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func newLog(t *testing.T) (*InteractionLog, func()) {
	t.Helper()
	ms := NewMemoryStore()
	return NewInteractionLog(ms, ""), func() { ms.Close() }
}

func mustApply(t *testing.T, l *InteractionLog, user, product string, kind core.InteractionKind) core.FeedbackState {
	t.Helper()
	state, err := l.Apply(context.Background(), user, product, kind)
	if err != nil {
		t.Fatalf("Apply(%s, %s, %s) error = %v", user, product, kind, err)
	}
	return state
}

func TestInteractionLog_LikeToggle(t *testing.T) {
	l, done := newLog(t)
	defer done()
	ctx := context.Background()

	// like -> liked
	if state := mustApply(t, l, "u1", "p1", core.KindLike); state != core.FeedbackLiked {
		t.Fatalf("state after like = %v, want liked", state)
	}
	list, _ := l.ListByUser(ctx, "u1")
	if len(list) != 1 || list[0].Kind != core.KindLike {
		t.Fatalf("after like: %+v, want exactly one like", list)
	}

	// 重复 like -> 撤销
	if state := mustApply(t, l, "u1", "p1", core.KindLike); state != core.FeedbackNone {
		t.Fatalf("state after second like = %v, want none", state)
	}
	list, _ = l.ListByUser(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("after unlike: %+v, want empty", list)
	}

	counts, err := l.CountByKind(ctx)
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if counts[core.KindLike] != 0 {
		t.Fatalf("like count = %d, want 0", counts[core.KindLike])
	}
}

func TestInteractionLog_LikeDislikeExclusive(t *testing.T) {
	l, done := newLog(t)
	defer done()
	ctx := context.Background()

	mustApply(t, l, "u1", "p1", core.KindLike)
	if state := mustApply(t, l, "u1", "p1", core.KindDislike); state != core.FeedbackDisliked {
		t.Fatalf("state after dislike = %v, want disliked", state)
	}

	// 不允许 like + dislike 同时存在
	list, _ := l.ListByUser(ctx, "u1")
	if len(list) != 1 || list[0].Kind != core.KindDislike {
		t.Fatalf("after like->dislike: %+v, want exactly one dislike", list)
	}

	counts, _ := l.CountByKind(ctx)
	if counts[core.KindLike] != 0 || counts[core.KindDislike] != 1 {
		t.Fatalf("counts = %v, want like=0 dislike=1", counts)
	}
}

func TestInteractionLog_ViewIdempotent(t *testing.T) {
	l, done := newLog(t)
	defer done()
	ctx := context.Background()

	mustApply(t, l, "u1", "p1", core.KindView)
	mustApply(t, l, "u1", "p1", core.KindView)
	mustApply(t, l, "u1", "p1", core.KindView)

	list, _ := l.ListByUser(ctx, "u1")
	if len(list) != 1 {
		t.Fatalf("repeated views stored %d records, want 1", len(list))
	}
	counts, _ := l.CountByKind(ctx)
	if counts[core.KindView] != 1 {
		t.Fatalf("view count = %d, want 1", counts[core.KindView])
	}
}

func TestInteractionLog_ListByProduct(t *testing.T) {
	l, done := newLog(t)
	defer done()
	ctx := context.Background()

	mustApply(t, l, "u1", "p1", core.KindLike)
	mustApply(t, l, "u2", "p1", core.KindLike)
	mustApply(t, l, "u2", "p2", core.KindPurchase)

	list, err := l.ListByProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByProduct() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("p1 interactions = %d, want 2", len(list))
	}
	for _, it := range list {
		if it.ProductID != "p1" || it.Kind != core.KindLike {
			t.Errorf("unexpected interaction %+v", it)
		}
	}
}

func TestInteractionLog_InvalidInput(t *testing.T) {
	l, done := newLog(t)
	defer done()

	if _, err := l.Apply(context.Background(), "u1", "p1", "click"); !core.IsInvalidInput(err) {
		t.Fatalf("unknown kind error = %v, want INVALID_INPUT", err)
	}
	if _, err := l.Apply(context.Background(), "", "p1", core.KindView); !core.IsInvalidInput(err) {
		t.Fatalf("empty user error = %v, want INVALID_INPUT", err)
	}
}

func TestFeedbackState_Next(t *testing.T) {
	tests := []struct {
		state  core.FeedbackState
		action core.InteractionKind
		want   core.FeedbackState
	}{
		{core.FeedbackNone, core.KindLike, core.FeedbackLiked},
		{core.FeedbackNone, core.KindDislike, core.FeedbackDisliked},
		{core.FeedbackLiked, core.KindLike, core.FeedbackNone},
		{core.FeedbackLiked, core.KindDislike, core.FeedbackDisliked},
		{core.FeedbackDisliked, core.KindDislike, core.FeedbackNone},
		{core.FeedbackDisliked, core.KindLike, core.FeedbackLiked},
		{core.FeedbackLiked, core.KindView, core.FeedbackLiked},
	}
	for _, tt := range tests {
		if got := tt.state.Next(tt.action); got != tt.want {
			t.Errorf("%v.Next(%s) = %v, want %v", tt.state, tt.action, got, tt.want)
		}
	}
}
