package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// Expr 是 CEL 表达式过滤器：表达式为 true 的候选被保留。
// 表达式语法见 pkg/dsl。
//
// 示例：
//
//	expr, _ := filter.NewExpr(`candidate.meta.category != "books"`, metaOf)
//	node := &filter.Node{Filters: []filter.Filter{expr}}
type Expr struct {
	program *dsl.Program

	// MetaOf 为候选补充目录元信息（category、price 等），可为 nil
	MetaOf func(productID string) map[string]any
}

// NewExpr 编译表达式并构造过滤器。表达式非法时返回错误。
func NewExpr(expression string, metaOf func(productID string) map[string]any) (*Expr, error) {
	program, err := dsl.Compile(expression)
	if err != nil {
		return nil, err
	}
	return &Expr{program: program, MetaOf: metaOf}, nil
}

func (f *Expr) Name() string { return "filter.expr" }

// ShouldFilter 表达式为 false 时过滤；求值出错视为不过滤（由 Node 跳过）。
func (f *Expr) ShouldFilter(
	_ context.Context,
	query *core.Query,
	c *core.Candidate,
) (bool, error) {
	var meta map[string]any
	if f.MetaOf != nil {
		meta = f.MetaOf(c.ID)
	}
	keep, err := f.program.Match(c, query, meta)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
