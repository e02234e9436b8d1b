package feature

import (
	"sort"

	"github.com/rushteam/shoprec/core"
)

// Schema 是一次目录快照上的确定性特征编码方案。
//
// 编码 = 类目 one-hot + 价格档位 one-hot：
//   - 类目槽位：目录快照中出现过的类目去重后按字典序排列，
//     末尾附加一个 "other" 槽位，承接快照之后出现的未知类目（不报错）
//   - 价格槽位：价格按快照内 min-max 归一化到 [0,1] 后，等宽切成
//     low / medium / high 三档 one-hot；快照内价格全相等时归一化值取 0.5
//
// 同一 Schema 下 Vectorize 是纯函数：相同的 (category, price) 必然产出
// 相同向量。缓存的相似度矩阵依赖这一点。
type Schema struct {
	categories []string       // 排序后的类目槽位（不含 other）
	catIndex   map[string]int // category -> 槽位下标
	priceMin   float64
	priceMax   float64
}

// 价格档位数：low / medium / high
const priceBuckets = 3

// NewSchema 从目录快照推导编码方案。
// 空目录得到一个只有 other + 价格槽位的退化方案。
func NewSchema(products []core.Product) *Schema {
	seen := make(map[string]struct{}, len(products))
	cats := make([]string, 0, len(products))
	var priceMin, priceMax float64
	for i, p := range products {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			cats = append(cats, p.Category)
		}
		if i == 0 {
			priceMin, priceMax = p.Price, p.Price
			continue
		}
		if p.Price < priceMin {
			priceMin = p.Price
		}
		if p.Price > priceMax {
			priceMax = p.Price
		}
	}
	sort.Strings(cats)

	catIndex := make(map[string]int, len(cats))
	for i, c := range cats {
		catIndex[c] = i
	}
	return &Schema{
		categories: cats,
		catIndex:   catIndex,
		priceMin:   priceMin,
		priceMax:   priceMax,
	}
}

// Dim 返回特征向量维度：类目槽位 + other 槽位 + 价格档位。
func (s *Schema) Dim() int {
	return len(s.categories) + 1 + priceBuckets
}

// Categories 返回类目槽位（不含 other），用于 stats/诊断。
func (s *Schema) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// Vectorize 把商品编码为定长特征向量。
// 未知类目落在 other 槽位；价格越界按边界档位处理。无错误路径。
func (s *Schema) Vectorize(p core.Product) []float64 {
	vec := make([]float64, s.Dim())

	if idx, ok := s.catIndex[p.Category]; ok {
		vec[idx] = 1
	} else {
		vec[len(s.categories)] = 1 // other 槽位
	}

	vec[len(s.categories)+1+s.priceBucket(p.Price)] = 1
	return vec
}

// priceBucket 返回价格所属档位下标 [0, priceBuckets)。
func (s *Schema) priceBucket(price float64) int {
	norm := 0.5
	if s.priceMax > s.priceMin {
		norm = (price - s.priceMin) / (s.priceMax - s.priceMin)
	}
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	bucket := int(norm * priceBuckets)
	if bucket >= priceBuckets {
		bucket = priceBuckets - 1
	}
	return bucket
}
