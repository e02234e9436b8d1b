package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rushteam/shoprec/core"
)

// Catalog 是基于 core.KeyValueStore 的商品目录实现。
// 读侧实现 core.Catalog；写侧供外部目录系统维护商品，
// 每次变更回调 OnChange（一般挂接 engine.Invalidate）。
//
// 存储布局：{prefix}:products Hash，field = productID，value = JSON Product。
type Catalog struct {
	store core.KeyValueStore

	// KeyPrefix 是存储 key 的前缀，默认 "catalog"
	KeyPrefix string

	// OnChange 在 Put/Remove 成功后调用，用于失效缓存的特征/相似度矩阵
	OnChange func()
}

// NewCatalog 创建目录实现。
func NewCatalog(kv core.KeyValueStore, keyPrefix string) *Catalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &Catalog{store: kv, KeyPrefix: keyPrefix}
}

var _ core.Catalog = (*Catalog)(nil)

func (c *Catalog) key() string {
	return c.KeyPrefix + ":products"
}

// Put 新增或更新商品。
func (c *Catalog) Put(ctx context.Context, p core.Product) error {
	if p.ID == "" {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			"catalog: product id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := c.store.HSet(ctx, c.key(), p.ID, data); err != nil {
		return err
	}
	c.notify()
	return nil
}

// Remove 删除商品；商品不存在时也视为成功。
func (c *Catalog) Remove(ctx context.Context, id string) error {
	if err := c.store.HDel(ctx, c.key(), id); err != nil {
		return err
	}
	c.notify()
	return nil
}

func (c *Catalog) notify() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// ListProducts 实现 core.Catalog。输出按 ID 升序，保证确定性。
func (c *Catalog) ListProducts(ctx context.Context) ([]core.Product, error) {
	fields, err := c.store.HGetAll(ctx, c.key())
	if err != nil {
		return nil, err
	}
	out := make([]core.Product, 0, len(fields))
	for _, data := range fields {
		var p core.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetProduct 实现 core.Catalog。
func (c *Catalog) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	data, err := c.store.HGet(ctx, c.key(), id)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrProductNotFound
		}
		return nil, err
	}
	var p core.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
