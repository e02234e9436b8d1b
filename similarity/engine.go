// Package similarity 计算商品特征矩阵的两两余弦相似度。
//
// 设计要点：
//   - 对角线强制为 0：推荐场景下"自己和自己相似"没有意义
//   - 零范数向量的相似度一律取 0（余弦未定义时的中性值）
//   - 两套实现输出一致：并发分块的优化实现 + 顺序遍历的参考实现，
//     构造时一次性选择，调用方只感知延迟差异
//   - 优化路径运行期失效时记录日志并静默降级到参考实现，绝不让请求失败
package similarity

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/rushteam/shoprec/core"
)

// Engine 是相似度计算的统一接口。
// 两种实现（Sequential / Parallel）对相同输入产出一致结果。
type Engine interface {
	// Name 返回实现名称（用于日志/监控）
	Name() string

	// Compute 返回 n x n 相似度矩阵；输入行维度不一致时返回 INVALID_INPUT
	Compute(features [][]float64) ([][]float64, error)
}

// Mode 控制构造时的实现选择。
type Mode string

const (
	// ModeAuto 多核时选并发实现，否则顺序实现
	ModeAuto Mode = "auto"
	// ModeParallel 强制并发实现
	ModeParallel Mode = "parallel"
	// ModeSequential 强制顺序实现
	ModeSequential Mode = "sequential"
)

type options struct {
	mode    Mode
	workers int
	logger  *slog.Logger
}

// Option 用于定制 New 的行为。
type Option func(*options)

// WithMode 指定实现选择策略。
func WithMode(m Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithWorkers 指定并发实现的 worker 数，<= 0 表示取 GOMAXPROCS。
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger 指定日志器，默认 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New 构造相似度引擎。实现选择只在这里发生一次，之后对调用方透明。
func New(opts ...Option) Engine {
	o := &options{mode: ModeAuto}
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	seq := &Sequential{}
	useParallel := o.mode == ModeParallel ||
		(o.mode == ModeAuto && runtime.GOMAXPROCS(0) > 1)
	if !useParallel {
		return &guarded{primary: seq, logger: o.logger}
	}
	return &guarded{
		primary:  &Parallel{Workers: o.workers},
		fallback: seq,
		logger:   o.logger,
	}
}

// Optimized 报告引擎当前是否走并发优化路径。
// 仅用于观测/诊断，不改变任何调用方可见的行为。
func Optimized(e Engine) bool {
	if g, ok := e.(*guarded); ok {
		_, parallel := g.primary.(*Parallel)
		return parallel && !g.degraded.Load()
	}
	_, parallel := e.(*Parallel)
	return parallel
}

// guarded 在选定实现外包一层守护：输入校验 + 优化路径失效时降级。
// 可被多个 goroutine 并发调用，降级标记用原子量维护。
type guarded struct {
	primary  Engine
	fallback Engine // 为 nil 表示 primary 本身就是参考实现
	logger   *slog.Logger
	degraded atomic.Bool
}

func (g *guarded) Name() string {
	if g.degraded.Load() && g.fallback != nil {
		return g.fallback.Name()
	}
	return g.primary.Name()
}

func (g *guarded) Compute(features [][]float64) ([][]float64, error) {
	if err := validate(features); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return [][]float64{}, nil
	}

	if !g.degraded.Load() {
		out, err := g.computeGuarded(features)
		if err == nil {
			return out, nil
		}
		if g.fallback == nil {
			return nil, err
		}
		// 优化路径失效：记录并降级，后续请求直接走参考实现
		g.logger.Warn("similarity: optimized path failed, falling back",
			"engine", g.primary.Name(), "error", err)
		g.degraded.Store(true)
	}
	return g.fallback.Compute(features)
}

// computeGuarded 执行 primary 并把 panic 折算为 UNAVAILABLE 错误。
func (g *guarded) computeGuarded(features [][]float64) (out [][]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeUnavailable,
				fmt.Sprintf("similarity: %s panicked: %v", g.primary.Name(), r))
		}
	}()
	return g.primary.Compute(features)
}

// validate 检查特征矩阵是否为矩形。
func validate(features [][]float64) error {
	if len(features) == 0 {
		return nil
	}
	dim := len(features[0])
	for i, row := range features {
		if len(row) != dim {
			return core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeInvalidInput,
				fmt.Sprintf("similarity: row %d has %d features, want %d", i, len(row), dim))
		}
	}
	return nil
}

// pairCosine 对一对行做单趟遍历：同时累积点积与两个范数平方。
// 两种实现共用同一数学路径，保证输出一致。
func pairCosine(a, b []float64) float64 {
	var dot, na, nb float64
	for k := range a {
		dot += a[k] * b[k]
		na += a[k] * a[k]
		nb += b[k] * b[k]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
