package search

import (
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"time"

	"talent-search-go/internal/config"
	"talent-search-go/internal/constants"
	"talent-search-go/internal/logger"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/types"
)

// CacheStrategy 一个TTL分级
// SoftTTL是软新鲜窗口，超过后视为陈旧，走重算并覆盖写入。
type CacheStrategy struct {
	Name    string
	TTL     time.Duration
	SoftTTL time.Duration
}

// CacheHit 缓存读取结果
type CacheHit struct {
	Data     types.SearchData
	IsStale  bool
	CacheAge int64 // 秒
}

// ResultStore 缓存管理器消费的结果存取接口，生产实现是storage.Redis
type ResultStore interface {
	GetSearchResult(ctx context.Context, key string) (*types.CachedSearchResult, error)
	SetSearchResult(ctx context.Context, key string, cached *types.CachedSearchResult, ttl time.Duration) error
}

// CacheManager 搜索结果缓存管理
// 纯性能优化层：读写失败一律吞掉，冷缓存下结果必须完全一致。
type CacheManager struct {
	store ResultStore
	cfg   *config.SearchConfig

	short    CacheStrategy
	filtered CacheStrategy
	semantic CacheStrategy
}

// NewCacheManager 创建缓存管理器，store为nil时所有操作退化为no-op
func NewCacheManager(store ResultStore, cfg *config.SearchConfig) *CacheManager {
	return &CacheManager{
		store: store,
		cfg:   cfg,
		short: CacheStrategy{
			Name:    "short",
			TTL:     config.GetDuration(cfg.CacheShortTTL, constants.CacheShortTTL),
			SoftTTL: config.GetDuration(cfg.CacheShortSoftTTL, constants.CacheShortSoftTTL),
		},
		filtered: CacheStrategy{
			Name:    "filtered",
			TTL:     config.GetDuration(cfg.CacheFilteredTTL, constants.CacheFilteredTTL),
			SoftTTL: config.GetDuration(cfg.CacheFilteredSoftTTL, constants.CacheFilteredSoftTTL),
		},
		semantic: CacheStrategy{
			Name:    "semantic",
			TTL:     config.GetDuration(cfg.CacheSemanticTTL, constants.CacheSemanticTTL),
			SoftTTL: config.GetDuration(cfg.CacheSemanticSoftTTL, constants.CacheSemanticSoftTTL),
		},
	}
}

// Strategy 根据查询长度和过滤条件选择TTL分级
// 语义查询重算代价高给最长TTL；短的无过滤查询随新候选人入库churn最快。
func (m *CacheManager) Strategy(normalizedQuery string, filters *types.SearchFilters) CacheStrategy {
	if len([]rune(normalizedQuery)) > m.cfg.SemanticThreshold {
		return m.semantic
	}
	if filters.HasFilters() {
		return m.filtered
	}
	return m.short
}

// Key 生成确定性缓存键
// 过滤数组先排序再拼接，字段顺序不影响键值。
func (m *CacheManager) Key(callerID, normalizedQuery string, filters *types.SearchFilters, limit, offset int) string {
	var sb strings.Builder
	sb.WriteString(normalizedQuery)
	sb.WriteString("|")

	if filters != nil {
		if filters.ExpYearsMin != nil {
			fmt.Fprintf(&sb, "min=%d", *filters.ExpYearsMin)
		}
		sb.WriteString("|")
		if filters.ExpYearsMax != nil {
			fmt.Fprintf(&sb, "max=%d", *filters.ExpYearsMax)
		}
		sb.WriteString("|")
		sb.WriteString(canonicalList(filters.Skills))
		sb.WriteString("|")
		sb.WriteString(filters.Location)
		sb.WriteString("|")
		sb.WriteString(canonicalList(filters.Companies))
		sb.WriteString("|")
		sb.WriteString(canonicalList(filters.ExcludeCompanies))
		sb.WriteString("|")
		sb.WriteString(filters.EducationLevel)
		sb.WriteString("|")
		fmt.Fprintf(&sb, "syn=%t", filters.SynonymsEnabled())
	}
	sb.WriteString("|")
	fmt.Fprintf(&sb, "limit=%d|offset=%d", limit, offset)

	hash := md5.Sum([]byte(sb.String()))
	return storage.SearchResultKey(callerID, fmt.Sprintf("%x", hash))
}

// canonicalList 排序后拼接，数组顺序不改变语义
func canonicalList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Get 读取缓存，返回nil表示未命中
// 读取失败按未命中处理，绝不阻断实时检索。
func (m *CacheManager) Get(ctx context.Context, key string, strategy CacheStrategy) *CacheHit {
	if m.store == nil {
		return nil
	}

	cached, err := m.store.GetSearchResult(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("读取搜索缓存失败，降级为实时检索")
		return nil
	}
	if cached == nil {
		return nil
	}

	age := time.Now().Unix() - cached.CreatedAt
	if age < 0 {
		age = 0
	}

	return &CacheHit{
		Data:     cached.Data,
		IsStale:  time.Duration(age)*time.Second > strategy.SoftTTL,
		CacheAge: age,
	}
}

// Set 写入缓存
// 调用方在独立goroutine中调用，失败只记录日志，不阻塞主流程。
func (m *CacheManager) Set(ctx context.Context, key string, data types.SearchData, strategy CacheStrategy) {
	if m.store == nil {
		return
	}

	cached := &types.CachedSearchResult{
		Data:      data,
		CreatedAt: time.Now().Unix(),
	}

	if err := m.store.SetSearchResult(ctx, key, cached, strategy.TTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Str("strategy", strategy.Name).Msg("写入搜索缓存失败")
	}
}
