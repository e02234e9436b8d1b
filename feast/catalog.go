// Package feast 把 Feast Feature Store 在线特征库接成商品目录数据源。
//
// 适用于商品属性（名称、类目、价格）由特征平台统一维护的部署形态：
// 推荐引擎不再直连业务库，而是按实体 key 从 Feast Feature Server
// 拉取在线特征。
//
// Feast serving 只支持按实体 key 点查，没有遍历实体的 API，
// 所以 ListProducts 需要外部提供商品 ID 全集（IDSource）。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"

	"github.com/rushteam/shoprec/core"
)

// IDSource 提供商品 ID 全集，一般由业务库或离线任务产出。
type IDSource func(ctx context.Context) ([]string, error)

// Catalog 实现 core.Catalog，商品属性来自 Feast 在线特征。
type Catalog struct {
	client    *feastsdk.GrpcClient
	project   string
	entityKey string
	view      string
	timeout   time.Duration
	idSource  IDSource
}

// Option 用于定制 New 的行为。
type Option func(*Catalog)

// WithEntityKey 指定实体 key 名称，默认 "product_id"。
func WithEntityKey(key string) Option {
	return func(c *Catalog) { c.entityKey = key }
}

// WithFeatureView 指定承载商品属性的 feature view，默认 "product_attributes"。
// view 需包含 name / category / price 三个特征。
func WithFeatureView(view string) Option {
	return func(c *Catalog) { c.view = view }
}

// WithTimeout 指定单次特征请求的超时时间，默认 30s。
func WithTimeout(d time.Duration) Option {
	return func(c *Catalog) { c.timeout = d }
}

// New 连接 Feast Feature Server 并构造目录数据源。
// port 为 0 时取默认 gRPC 端口 6565。
func New(host string, port int, project string, idSource IDSource, opts ...Option) (*Catalog, error) {
	if idSource == nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			"feast: id source is required")
	}
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s:%d: %w", host, port, err)
	}

	c := &Catalog{
		client:    client,
		project:   project,
		entityKey: "product_id",
		view:      "product_attributes",
		timeout:   30 * time.Second,
		idSource:  idSource,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c, nil
}

// ListProducts 拉取全量商品：IDSource 给出 ID 全集，属性一次批量取回。
// 特征库中没有属性的 ID 被跳过（通常是已下架商品）。
func (c *Catalog) ListProducts(ctx context.Context) ([]core.Product, error) {
	ids, err := c.idSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("feast: list ids: %w", err)
	}
	if len(ids) == 0 {
		return []core.Product{}, nil
	}

	rows, err := c.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make([]core.Product, 0, len(ids))
	for i, id := range ids {
		p, ok := c.productOf(id, rows[i])
		if !ok {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct 按 ID 点查单个商品。
func (c *Catalog) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	rows, err := c.fetch(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	p, ok := c.productOf(id, rows[0])
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return &p, nil
}

// fetch 按实体 key 批量拉取在线特征，返回与 ids 对齐的特征行。
func (c *Catalog) fetch(ctx context.Context, ids []string) ([]feastsdk.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	entities := make([]feastsdk.Row, len(ids))
	for i, id := range ids {
		entities[i] = feastsdk.Row{c.entityKey: feastsdk.StrVal(id)}
	}
	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: c.features(),
		Entities: entities,
		Project:  c.project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: get online features: %v", err))
	}
	rows := resp.Rows()
	if len(rows) != len(ids) {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: response rows %d, want %d", len(rows), len(ids)))
	}
	return rows, nil
}

// features 返回请求的特征全名列表。
func (c *Catalog) features() []string {
	return []string{
		c.view + ":name",
		c.view + ":category",
		c.view + ":price",
	}
}

// productOf 把一行特征还原为商品。name 与 category 均为空视为实体不存在。
func (c *Catalog) productOf(id string, row feastsdk.Row) (core.Product, bool) {
	name := stringField(row, c.view+":name")
	category := stringField(row, c.view+":category")
	if name == "" && category == "" {
		return core.Product{}, false
	}
	return core.Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    numberField(row, c.view+":price"),
	}, true
}

// stringField 提取字符串特征值，缺失或类型不符时返回空串。
func stringField(row feastsdk.Row, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	return v.GetStringVal()
}

// numberField 提取数值特征值，兼容 double / float / int64 三种存储类型。
func numberField(row feastsdk.Row, key string) float64 {
	v, ok := row[key]
	if !ok || v == nil {
		return 0
	}
	if d := v.GetDoubleVal(); d != 0 {
		return d
	}
	if f := v.GetFloatVal(); f != 0 {
		return float64(f)
	}
	return float64(v.GetInt64Val())
}

var _ core.Catalog = (*Catalog)(nil)
