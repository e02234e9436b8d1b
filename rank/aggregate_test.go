package rank

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func testCategories() func(string) (string, bool) {
	cats := map[string]string{
		"a": "electronics",
		"b": "electronics",
		"c": "books",
	}
	return func(id string) (string, bool) {
		c, ok := cats[id]
		return c, ok
	}
}

func candidatesWithContent(content map[string]float64) []*core.Candidate {
	out := make([]*core.Candidate, 0, len(content))
	for _, id := range []string{"b", "c"} {
		c := core.NewCandidate(id)
		c.Breakdown.Content = content[id]
		out = append(out, c)
	}
	return out
}

func TestAggregator_ContentOnly(t *testing.T) {
	// 无任何行为数据：排名完全由内容相似度决定
	n := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: &fakeReader{},
		CategoryOf:   testCategories(),
	}
	out, err := n.Process(context.Background(), &core.Query{AnchorID: "a", K: 2},
		candidatesWithContent(map[string]float64{"b": 0.8, "c": 0.2}))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].ID != "b" || out[1].ID != "c" {
		t.Fatalf("order = [%s %s], want [b c]", out[0].ID, out[1].ID)
	}
	if out[0].Breakdown.Preference != 0 || out[0].Breakdown.Collaborative != 0 {
		t.Errorf("non-personalized request should have zero behavioral components: %+v", out[0].Breakdown)
	}
}

func TestAggregator_PersonalizationRespectsDislike(t *testing.T) {
	reader := &fakeReader{interactions: []core.Interaction{
		{UserID: "u1", ProductID: "a", Kind: core.KindLike},
		{UserID: "u1", ProductID: "c", Kind: core.KindDislike},
	}}
	content := map[string]float64{"b": 0.8, "c": 0.2}

	baseline := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: &fakeReader{},
		CategoryOf:   testCategories(),
	}
	baseOut, err := baseline.Process(context.Background(), &core.Query{AnchorID: "a", K: 2},
		candidatesWithContent(content))
	if err != nil {
		t.Fatalf("baseline Process() error = %v", err)
	}
	var baseB, baseC float64
	for _, c := range baseOut {
		switch c.ID {
		case "b":
			baseB = c.Score
		case "c":
			baseC = c.Score
		}
	}

	personalized := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: reader,
		CategoryOf:   testCategories(),
	}
	persOut, err := personalized.Process(context.Background(),
		&core.Query{AnchorID: "a", UserID: "u1", K: 2}, candidatesWithContent(content))
	if err != nil {
		t.Fatalf("personalized Process() error = %v", err)
	}
	for _, c := range persOut {
		switch c.ID {
		case "b":
			// 用户喜欢过 electronics：B 至少不低于无个性化基线
			if c.Score < baseB {
				t.Errorf("b score %v below baseline %v", c.Score, baseB)
			}
			if c.Breakdown.Preference <= 0 {
				t.Errorf("b preference = %v, want > 0", c.Breakdown.Preference)
			}
		case "c":
			// 差评类目归零，不许高于内容基线
			if c.Breakdown.Preference != 0 {
				t.Errorf("disliked category preference = %v, want 0", c.Breakdown.Preference)
			}
			if c.Score > baseC+1e-9 {
				t.Errorf("c score %v above content-only baseline %v", c.Score, baseC)
			}
		}
	}
}

func TestAggregator_StandaloneWithoutCategoryOf(t *testing.T) {
	// Node 可单独接入 Pipeline：不挂目录快照（CategoryOf 为 nil）时
	// 个性化请求照常工作，偏好分按无类目信息处理为 0
	reader := &fakeReader{interactions: []core.Interaction{
		{UserID: "u1", ProductID: "a", Kind: core.KindLike},
	}}
	n := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: reader,
	}
	out, err := n.Process(context.Background(), &core.Query{AnchorID: "a", UserID: "u1", K: 2},
		candidatesWithContent(map[string]float64{"b": 0.8, "c": 0.2}))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].ID != "b" || out[1].ID != "c" {
		t.Fatalf("order = [%s %s], want [b c]", out[0].ID, out[1].ID)
	}
	for _, c := range out {
		if c.Breakdown.Preference != 0 {
			t.Errorf("preference without category resolver = %v, want 0", c.Breakdown.Preference)
		}
	}
}

func TestAggregator_DeterministicTieBreak(t *testing.T) {
	n := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: &fakeReader{},
		CategoryOf:   testCategories(),
	}
	cands := []*core.Candidate{core.NewCandidate("z"), core.NewCandidate("m"), core.NewCandidate("a")}
	out, err := n.Process(context.Background(), &core.Query{K: 3}, cands)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// 全部零分：按 ID 升序
	want := []string{"a", "m", "z"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("tie-break order %v, want %v", []string{out[0].ID, out[1].ID, out[2].ID}, want)
		}
	}
}

func TestAggregator_PopularityNormalized(t *testing.T) {
	reader := &fakeReader{interactions: []core.Interaction{
		{UserID: "u2", ProductID: "b", Kind: core.KindLike},
		{UserID: "u3", ProductID: "b", Kind: core.KindView},
		{UserID: "u2", ProductID: "c", Kind: core.KindView},
	}}
	n := &Aggregator{
		Weights:      DefaultWeights(),
		Popularity:   DefaultPopularityWeights(),
		Interactions: reader,
		CategoryOf:   testCategories(),
	}
	out, err := n.Process(context.Background(), &core.Query{K: 2},
		candidatesWithContent(map[string]float64{"b": 0, "c": 0}))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for _, c := range out {
		if c.Breakdown.Popularity < 0 || c.Breakdown.Popularity > 1 {
			t.Errorf("popularity out of [0,1]: %v", c.Breakdown.Popularity)
		}
		if c.ID == "b" && c.Breakdown.Popularity != 1 {
			t.Errorf("most engaged product popularity = %v, want 1", c.Breakdown.Popularity)
		}
	}
}
