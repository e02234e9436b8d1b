package feature

import "github.com/rushteam/shoprec/core"

// Matrix 是和商品 ID 序列对齐的特征矩阵。
// Rows[i] 是 IDs[i] 的特征向量；目录或特征相关属性变化时整体重建。
type Matrix struct {
	IDs   []string
	Index map[string]int // product ID -> 行号
	Rows  [][]float64
}

// BuildMatrix 用给定 Schema 对一批商品做批量编码。
// 行序与传入的商品顺序一致，调用方需保证顺序稳定（engine 按 ID 排序后传入）。
func BuildMatrix(schema *Schema, products []core.Product) *Matrix {
	m := &Matrix{
		IDs:   make([]string, len(products)),
		Index: make(map[string]int, len(products)),
		Rows:  make([][]float64, len(products)),
	}
	for i, p := range products {
		m.IDs[i] = p.ID
		m.Index[p.ID] = i
		m.Rows[i] = schema.Vectorize(p)
	}
	return m
}

// Len 返回矩阵行数。
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Rows)
}
