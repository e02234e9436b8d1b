package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("candidate", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("query", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Program 是编译后的候选过滤表达式，可跨请求复用（cel.Program 线程安全）。
//
// 表达式使用 CEL (Common Expression Language) 语法，可访问：
//   - candidate.id / candidate.score
//   - candidate.content / candidate.preference / candidate.collaborative / candidate.popularity
//   - candidate.meta.<key>（目录元信息：category、price 等，由 filter.Expr 注入）
//   - label.<key>（召回/排序阶段写入的标签值）
//   - query.anchor_id / query.user_id / query.params
//
// 示例：
//   - `candidate.meta.category != "books"` → 排除图书类目
//   - `candidate.meta.price < 100.0` → 只保留低价商品
//   - `label.recall_source == "anchor_similar"` → 按召回来源筛选
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式编译为恒真程序。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回源表达式。
func (p *Program) String() string { return p.expr }

// Match 对单个候选求值，返回布尔结果。
// meta 是额外注入到 candidate.meta 的目录元信息，可为 nil。
func (p *Program) Match(c *core.Candidate, query *core.Query, meta map[string]any) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(c, query, meta))
	if err != nil {
		// 访问不存在的 key 时 CEL 返回错误；表达式应使用 label.key != null 检查存在性
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(c *core.Candidate, query *core.Query, meta map[string]any) map[string]any {
	labels := make(map[string]any, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v.Value
	}

	merged := make(map[string]any, len(c.Meta)+len(meta))
	for k, v := range c.Meta {
		merged[k] = v
	}
	for k, v := range meta {
		merged[k] = v
	}

	candidate := map[string]any{
		"id":            c.ID,
		"score":         c.Score,
		"content":       c.Breakdown.Content,
		"preference":    c.Breakdown.Preference,
		"collaborative": c.Breakdown.Collaborative,
		"popularity":    c.Breakdown.Popularity,
		"meta":          merged,
	}

	q := map[string]any{}
	if query != nil {
		q["anchor_id"] = query.AnchorID
		q["user_id"] = query.UserID
		q["params"] = query.Params
	}

	return map[string]any{
		"candidate": candidate,
		"label":     labels,
		"query":     q,
	}
}
