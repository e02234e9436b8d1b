package filter

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

type staticReader struct {
	interactions []core.Interaction
}

func (s *staticReader) ListByUser(_ context.Context, userID string) ([]core.Interaction, error) {
	var out []core.Interaction
	for _, it := range s.interactions {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *staticReader) ListByProduct(_ context.Context, productID string) ([]core.Interaction, error) {
	var out []core.Interaction
	for _, it := range s.interactions {
		if it.ProductID == productID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *staticReader) CountByKind(_ context.Context) (map[core.InteractionKind]int64, error) {
	return nil, nil
}

func candidates(ids ...string) []*core.Candidate {
	out := make([]*core.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewCandidate(id))
	}
	return out
}

func idsOf(cands []*core.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ID)
	}
	return out
}

func TestInteracted_FiltersPurchased(t *testing.T) {
	reader := &staticReader{interactions: []core.Interaction{
		{UserID: "u1", ProductID: "a", Kind: core.KindPurchase},
		{UserID: "u1", ProductID: "b", Kind: core.KindView},
	}}
	node := &Node{Filters: []Filter{&Interacted{Interactions: reader}}}

	out, err := node.Process(context.Background(),
		&core.Query{UserID: "u1"}, candidates("a", "b", "c"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	got := idsOf(out)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("got %v, want [b c]", got)
	}
}

func TestInteracted_AnonymousQuery(t *testing.T) {
	reader := &staticReader{interactions: []core.Interaction{
		{UserID: "u1", ProductID: "a", Kind: core.KindPurchase},
	}}
	node := &Node{Filters: []Filter{&Interacted{Interactions: reader}}}

	out, err := node.Process(context.Background(), &core.Query{}, candidates("a", "b"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("anonymous query should not filter, got %v", idsOf(out))
	}
}

func TestExpr_FiltersByMeta(t *testing.T) {
	metaOf := func(id string) map[string]any {
		cats := map[string]string{"a": "electronics", "b": "books"}
		return map[string]any{"category": cats[id]}
	}
	expr, err := NewExpr(`candidate.meta.category != "books"`, metaOf)
	if err != nil {
		t.Fatalf("NewExpr() error = %v", err)
	}
	node := &Node{Filters: []Filter{expr}}

	out, err := node.Process(context.Background(), &core.Query{}, candidates("a", "b"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	got := idsOf(out)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %v, want [a]", got)
	}
}

func TestExpr_EmptyExpressionKeepsAll(t *testing.T) {
	expr, err := NewExpr("", nil)
	if err != nil {
		t.Fatalf("NewExpr() error = %v", err)
	}
	node := &Node{Filters: []Filter{expr}}
	out, err := node.Process(context.Background(), &core.Query{}, candidates("a", "b"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("empty expression should keep all, got %v", idsOf(out))
	}
}

func TestExpr_InvalidExpression(t *testing.T) {
	if _, err := NewExpr("candidate.score >", nil); err == nil {
		t.Fatal("invalid expression should fail to compile")
	}
}
