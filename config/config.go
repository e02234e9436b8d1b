// Package config 从 YAML 加载推荐引擎配置并组装运行时组件。
//
// 配置示例：
//
//	store:
//	  backend: redis
//	  redis:
//	    addr: 127.0.0.1:6379
//	    db: 0
//	engine:
//	  similarity: auto
//	  workers: 0
//	  top_k: 10
//	weights:
//	  content: 0.40
//	  preference: 0.20
//	  collaborative: 0.30
//	  popularity: 0.10
//	popularity:
//	  view: 1
//	  like: 3
//	  purchase: 5
//	filters:
//	  exclude_interacted: [purchase]
//	  expr: 'candidate.meta.category != "books"'
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/similarity"
	"github.com/rushteam/shoprec/store"
)

// Config 是推荐引擎的全部可配置项。零值经 setDefaults 补齐后即可用。
type Config struct {
	Store      StoreConfig            `yaml:"store"`
	Engine     EngineConfig           `yaml:"engine"`
	Weights    rank.Weights           `yaml:"weights"`
	Popularity rank.PopularityWeights `yaml:"popularity"`
	Filters    FilterConfig           `yaml:"filters"`
}

// StoreConfig 选择存储后端。
type StoreConfig struct {
	// Backend: memory（默认）或 redis
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`

	// 键前缀，多套环境共用一个 Redis 时用于隔离
	CatalogPrefix      string `yaml:"catalog_prefix"`
	InteractionsPrefix string `yaml:"interactions_prefix"`
}

// RedisConfig 是 redis 后端的连接参数。
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// EngineConfig 是引擎与相似度计算的运行参数。
type EngineConfig struct {
	// Similarity: auto（默认）/ parallel / sequential
	Similarity string `yaml:"similarity"`
	// Workers 并发实现的 worker 数，0 表示取 GOMAXPROCS
	Workers int `yaml:"workers"`
	// TopK 默认推荐条数，调用方未指定 k 时使用
	TopK int `yaml:"top_k"`
}

// FilterConfig 是候选过滤配置。
type FilterConfig struct {
	// ExcludeInteracted 列出应剔除已发生行为的行为类型（如 purchase）
	ExcludeInteracted []string `yaml:"exclude_interacted"`
	// Expr 是 CEL 过滤表达式，语法见 pkg/dsl
	Expr string `yaml:"expr"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load 从 YAML 文件加载配置。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 从 YAML 字节解析配置并校验。
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 补齐未配置的字段。
// 权重四项全为零视为未配置，整体取默认值；部分配置则原样保留交给校验。
func (c *Config) setDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.CatalogPrefix == "" {
		c.Store.CatalogPrefix = "catalog"
	}
	if c.Store.InteractionsPrefix == "" {
		c.Store.InteractionsPrefix = "interactions"
	}
	if c.Engine.Similarity == "" {
		c.Engine.Similarity = string(similarity.ModeAuto)
	}
	if c.Engine.TopK <= 0 {
		c.Engine.TopK = 10
	}
	if c.Weights == (rank.Weights{}) {
		c.Weights = rank.DefaultWeights()
	}
	if c.Popularity == (rank.PopularityWeights{}) {
		c.Popularity = rank.DefaultPopularityWeights()
	}
}

// Validate 校验配置合法性。
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			"config: redis backend requires store.redis.addr")
	}
	switch similarity.Mode(c.Engine.Similarity) {
	case similarity.ModeAuto, similarity.ModeParallel, similarity.ModeSequential:
	default:
		return core.NewDomainError(core.ModuleSimilarity, core.ErrorCodeInvalidInput,
			fmt.Sprintf("config: unknown similarity mode %q", c.Engine.Similarity))
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for _, kind := range c.Filters.ExcludeInteracted {
		if !core.InteractionKind(kind).Valid() {
			return core.NewDomainError(core.ModuleInteraction, core.ErrorCodeInvalidInput,
				fmt.Sprintf("config: unknown interaction kind %q in filters.exclude_interacted", kind))
		}
	}
	return nil
}

// Runtime 是按配置组装好的一整套运行时组件。
type Runtime struct {
	Catalog      *store.Catalog
	Interactions *store.InteractionLog
	Engine       *engine.Engine

	// TopK 是配置的默认推荐条数
	TopK int
}

// Build 按配置组装存储与引擎，目录变更自动触发快照失效。
func (c *Config) Build(opts ...engine.Option) (*Runtime, error) {
	var kv core.KeyValueStore
	switch c.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(c.Store.Redis.Addr, c.Store.Redis.DB)
		if err != nil {
			return nil, err
		}
		kv = rs
	default:
		kv = store.NewMemoryStore()
	}

	catalog := store.NewCatalog(kv, c.Store.CatalogPrefix)
	interactions := store.NewInteractionLog(kv, c.Store.InteractionsPrefix)

	engineOpts := []engine.Option{
		engine.WithInteractions(interactions),
		engine.WithWeights(c.Weights),
		engine.WithPopularityWeights(c.Popularity),
		engine.WithSimilarityEngine(similarity.New(
			similarity.WithMode(similarity.Mode(c.Engine.Similarity)),
			similarity.WithWorkers(c.Engine.Workers),
		)),
	}
	if len(c.Filters.ExcludeInteracted) > 0 {
		kinds := make([]core.InteractionKind, 0, len(c.Filters.ExcludeInteracted))
		for _, k := range c.Filters.ExcludeInteracted {
			kinds = append(kinds, core.InteractionKind(k))
		}
		engineOpts = append(engineOpts, engine.WithFilters(&filter.Interacted{
			Interactions: interactions,
			Kinds:        kinds,
		}))
	}
	if c.Filters.Expr != "" {
		engineOpts = append(engineOpts, engine.WithFilterExpr(c.Filters.Expr))
	}
	engineOpts = append(engineOpts, opts...)

	eng, err := engine.New(catalog, engineOpts...)
	if err != nil {
		// redis 后端此时已建连，不能把连接留给没人持有的 Runtime
		kv.Close()
		return nil, err
	}
	catalog.OnChange = eng.Invalidate

	return &Runtime{
		Catalog:      catalog,
		Interactions: interactions,
		Engine:       eng,
		TopK:         c.Engine.TopK,
	}, nil
}
