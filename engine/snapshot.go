package engine

import (
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
)

// snapshot 是一次目录快照上的全部派生数据：
// 商品列表（按 ID 排序）、编码方案、特征矩阵、相似度矩阵。
// 构建完成后只读，可被任意数量的并发请求共享；
// 目录变化时整体替换，读者永远看不到构建中的矩阵。
type snapshot struct {
	products []core.Product
	byID     map[string]core.Product
	schema   *feature.Schema
	features *feature.Matrix
	sims     [][]float64
}

// Row 实现 recall.SimilarityRow：返回锚点相似度行（不含锚点自身）。
func (s *snapshot) Row(anchorID string) ([]string, []float64, error) {
	idx, ok := s.features.Index[anchorID]
	if !ok {
		return nil, nil, core.ErrProductNotFound
	}
	row := s.sims[idx]
	ids := make([]string, 0, len(row)-1)
	sims := make([]float64, 0, len(row)-1)
	for j, id := range s.features.IDs {
		if j == idx {
			continue // 锚点不进入候选集
		}
		ids = append(ids, id)
		sims = append(sims, row[j])
	}
	return ids, sims, nil
}

// categoryOf 把商品 ID 解析为类目（供 rank.Aggregator 使用）。
func (s *snapshot) categoryOf(id string) (string, bool) {
	p, ok := s.byID[id]
	if !ok {
		return "", false
	}
	return p.Category, true
}

// metaOf 返回商品的目录元信息（供 CEL 过滤表达式使用）。
func (s *snapshot) metaOf(id string) map[string]any {
	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	return map[string]any{
		"name":     p.Name,
		"category": p.Category,
		"price":    p.Price,
	}
}

// categories 返回快照中去重后的类目数。
func (s *snapshot) categories() int {
	return len(s.schema.Categories())
}
