// Package engine 把目录、行为、特征、相似度与 Pipeline 组装成推荐引擎。
//
// 引擎维护一份目录快照（商品 + 特征矩阵 + 相似度矩阵），采用
// copy-on-write 策略：重建在锁外完成，完成后原子替换指针，
// 正在执行的请求继续使用旧快照直到自然结束。
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/similarity"
)

// Recommendation 是引擎对外的单条推荐结果。
// Breakdown 与 Labels 保留打分明细，供上层做解释展示。
type Recommendation struct {
	ProductID string                `json:"product_id"`
	Score     float64               `json:"score"`
	Breakdown core.Breakdown        `json:"breakdown"`
	Labels    map[string]core.Label `json:"labels,omitempty"`
}

// Stats 是引擎当前状态的观测快照。
type Stats struct {
	TotalProducts int  `json:"total_products"`
	Categories    int  `json:"categories"`
	Loaded        bool `json:"loaded"`    // 快照是否已构建且未失效
	Optimized     bool `json:"optimized"` // 相似度引擎是否走并发优化路径
}

// Engine 是推荐引擎。构造后可被任意数量的 goroutine 并发使用。
type Engine struct {
	catalog      core.Catalog
	interactions core.InteractionReader
	sim          similarity.Engine
	weights      rank.Weights
	popularity   rank.PopularityWeights
	filters      []filter.Filter
	logger       *slog.Logger

	mu    sync.Mutex // 串行化快照重建
	snap  atomic.Pointer[snapshot]
	dirty atomic.Bool
}

// Option 用于定制 New 的行为。
type Option func(*Engine) error

// WithInteractions 接入用户行为数据源。不设置时引擎退化为纯内容推荐。
func WithInteractions(r core.InteractionReader) Option {
	return func(e *Engine) error {
		e.interactions = r
		return nil
	}
}

// WithSimilarityEngine 指定相似度引擎，默认 similarity.New()。
func WithSimilarityEngine(s similarity.Engine) Option {
	return func(e *Engine) error {
		e.sim = s
		return nil
	}
}

// WithWeights 指定综合分权重，构造时校验。
func WithWeights(w rank.Weights) Option {
	return func(e *Engine) error {
		if err := w.Validate(); err != nil {
			return err
		}
		e.weights = w
		return nil
	}
}

// WithPopularityWeights 指定热度分的互动权重。
func WithPopularityWeights(w rank.PopularityWeights) Option {
	return func(e *Engine) error {
		e.popularity = w
		return nil
	}
}

// WithFilters 追加候选过滤器（如已购剔除）。
func WithFilters(filters ...filter.Filter) Option {
	return func(e *Engine) error {
		e.filters = append(e.filters, filters...)
		return nil
	}
}

// WithFilterExpr 追加 CEL 过滤表达式，形如 `meta.category != "books"`。
// 表达式在构造时编译，元信息来自引擎的目录快照。
func WithFilterExpr(expr string) Option {
	return func(e *Engine) error {
		f, err := filter.NewExpr(expr, func(id string) map[string]any {
			s := e.snap.Load()
			if s == nil {
				return nil
			}
			return s.metaOf(id)
		})
		if err != nil {
			return err
		}
		e.filters = append(e.filters, f)
		return nil
	}
}

// WithLogger 指定日志器，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = l
		return nil
	}
}

// New 构造推荐引擎。快照按需懒构建，首个请求触发。
func New(catalog core.Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"engine: catalog is required")
	}
	e := &Engine{
		catalog:    catalog,
		weights:    rank.DefaultWeights(),
		popularity: rank.DefaultPopularityWeights(),
	}
	for _, fn := range opts {
		if err := fn(e); err != nil {
			return nil, err
		}
	}
	if e.sim == nil {
		e.sim = similarity.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Recommend 返回锚点商品的前 k 条推荐。
//
// - k < 0 返回 INVALID_INPUT；k == 0 或目录为空返回空结果
// - anchorID 不在目录中返回 NOT_FOUND
// - userID 为空时走非个性化链路（偏好分、协同分为 0）
// - 结果按综合分降序排列，分数相同时按商品 ID 升序
func (e *Engine) Recommend(ctx context.Context, anchorID, userID string, k int) ([]Recommendation, error) {
	if k < 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("engine: k must be non-negative, got %d", k))
	}
	if k == 0 {
		return []Recommendation{}, nil
	}

	snap, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.products) == 0 {
		return []Recommendation{}, nil
	}

	query := &core.Query{AnchorID: anchorID, UserID: userID, K: k}
	candidates, err := e.pipelineFor(snap, k).Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Recommendation{
			ProductID: c.ID,
			Score:     c.Score,
			Breakdown: c.Breakdown,
			Labels:    c.Labels,
		})
	}
	return out, nil
}

// Stats 返回引擎状态。只读当前快照，不触发构建。
func (e *Engine) Stats() Stats {
	st := Stats{Optimized: similarity.Optimized(e.sim)}
	s := e.snap.Load()
	if s == nil {
		return st
	}
	st.TotalProducts = len(s.products)
	st.Categories = s.categories()
	st.Loaded = !e.dirty.Load()
	return st
}

// Invalidate 标记快照失效。重建推迟到下一个请求，调用本身不阻塞。
func (e *Engine) Invalidate() {
	e.dirty.Store(true)
}

// Refresh 立即重建快照，通常在批量导入目录后调用。
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.build(ctx)
	if err != nil {
		return err
	}
	e.snap.Store(s)
	e.dirty.Store(false)
	return nil
}

// current 返回可用快照，必要时触发重建。
// 重建期间持有 mu：观察到失效标记的请求在 mu 上排队等新快照，
// 已经拿到旧快照指针的请求不受影响，继续用旧快照跑完。
func (e *Engine) current(ctx context.Context) (*snapshot, error) {
	if s := e.snap.Load(); s != nil && !e.dirty.Load() {
		return s, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.snap.Load(); s != nil && !e.dirty.Load() {
		return s, nil
	}
	s, err := e.build(ctx)
	if err != nil {
		return nil, err
	}
	e.snap.Store(s)
	e.dirty.Store(false)
	return s, nil
}

// build 从目录构建一份完整快照：商品 → 特征矩阵 → 相似度矩阵。
func (e *Engine) build(ctx context.Context) (*snapshot, error) {
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	schema := feature.NewSchema(products)
	m := feature.BuildMatrix(schema, products)
	sims, err := e.sim.Compute(m.Rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]core.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	e.logger.Info("engine: snapshot rebuilt",
		"products", len(products),
		"dim", schema.Dim(),
		"similarity", e.sim.Name())
	return &snapshot{
		products: products,
		byID:     byID,
		schema:   schema,
		features: m,
		sims:     sims,
	}, nil
}

// pipelineFor 组装一次请求的 Node 链：召回 → 过滤 → 排序 → 截断。
func (e *Engine) pipelineFor(snap *snapshot, k int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.AnchorSimilar{Rows: snap},
	}
	if len(e.filters) > 0 {
		nodes = append(nodes, &filter.Node{Filters: e.filters})
	}
	nodes = append(nodes,
		&rank.Aggregator{
			Weights:      e.weights,
			Popularity:   e.popularity,
			Interactions: e.interactions,
			CategoryOf:   snap.categoryOf,
		},
		&rerank.TopN{N: k},
	)
	return &pipeline.Pipeline{Nodes: nodes}
}
