package core

import "context"

// Product 是商品目录中的一条记录。
// 目录由外部系统维护，推荐核心只读取；Category 与 Price 是特征编码的输入，
// 二者任一变化都意味着缓存的特征/相似度矩阵需要重建。
type Product struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Price    float64 `json:"price" yaml:"price"` // 非负
}

// Catalog 是商品目录的只读领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store / feast）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 实现：
//   - store.Catalog（基于 core.Store 的 KV 实现）
//   - feast.Catalog（基于 Feast 在线特征库的实现）
type Catalog interface {
	// ListProducts 返回目录中的全部商品
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct 按 ID 查找商品；不存在时返回 NOT_FOUND
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// ErrProductNotFound 表示商品不存在
var ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: product not found")
