package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Source 表示一个可复用的候选生成源。
// 引擎默认只用相似度召回；自定义 Source 可以并入同一条 Pipeline。
type Source interface {
	Name() string
	Recall(ctx context.Context, query *core.Query) ([]*core.Candidate, error)
}
