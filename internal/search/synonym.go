package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"talent-search-go/internal/config"
	"talent-search-go/internal/constants"
	"talent-search-go/internal/logger"
	"talent-search-go/internal/storage"
)

// SynonymSource 同义词组的权威来源，生产实现是storage.MySQL
type SynonymSource interface {
	GetSynonymsByTerm(ctx context.Context, term string) ([]string, error)
}

// SynonymCache 词项级同义词缓存，生产实现是storage.Redis
type SynonymCache interface {
	GetSynonymGroup(ctx context.Context, term string) ([]string, error)
	SetSynonymGroup(ctx context.Context, term string, group []string, ttl time.Duration) error
}

// SynonymExpander 同义词扩展服务
// 底层是运营维护的同义词表，词项级Redis缓存，未知词项原样返回。
type SynonymExpander struct {
	source   SynonymSource
	cache    SynonymCache
	cacheTTL time.Duration
}

// NewSynonymExpander 创建同义词扩展服务，cache为nil时跳过缓存层
func NewSynonymExpander(source SynonymSource, cache SynonymCache, cfg *config.SearchConfig) *SynonymExpander {
	return &SynonymExpander{
		source:   source,
		cache:    cache,
		cacheTTL: config.GetDuration(cfg.SynonymCacheTTL, constants.SynonymCacheTTL),
	}
}

// Expand 扩展单个词项，结果总是包含词项本身
// 查表失败降级为不扩展，同义词扩展只影响召回宽度，不影响正确性。
func (e *SynonymExpander) Expand(ctx context.Context, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	lookupKey := strings.ToLower(term)

	if e.cache != nil {
		group, err := e.cache.GetSynonymGroup(ctx, lookupKey)
		switch {
		case err == nil && group != nil:
			return ensureContains(group, term)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			logger.Ctx(ctx).Warn().Err(err).Str("term", term).Msg("读取同义词缓存失败")
		}
	}

	group, err := e.source.GetSynonymsByTerm(ctx, lookupKey)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("term", term).Msg("同义词查表失败，按未扩展处理")
		return []string{term}
	}
	if len(group) == 0 {
		group = []string{lookupKey}
	}

	if e.cache != nil {
		if err := e.cache.SetSynonymGroup(ctx, lookupKey, group, e.cacheTTL); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("term", term).Msg("写入同义词缓存失败")
		}
	}

	return ensureContains(group, term)
}

// ExpandMany 扩展多个词项并取并集，结果按首次出现顺序去重
// maxTerms限制并集总量；原词项先占位，同义词只在余量内补充，
// 预算收紧时丢的是扩展词，不丢调用方给出的过滤条件。
func (e *SynonymExpander) ExpandMany(ctx context.Context, terms []string, maxTerms int) []string {
	var union []string
	seen := make(map[string]struct{})

	add := func(t string) bool {
		key := strings.ToLower(t)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			union = append(union, t)
		}
		return maxTerms <= 0 || len(union) < maxTerms
	}

	groups := make([][]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		groups = append(groups, e.Expand(ctx, term))
		if !add(term) {
			return union
		}
	}

	for _, group := range groups {
		for _, expanded := range group {
			if !add(expanded) {
				return union
			}
		}
	}
	return union
}

// ensureContains 保证原词项在结果中（大小写不敏感比较）
func ensureContains(group []string, term string) []string {
	lower := strings.ToLower(term)
	for _, g := range group {
		if strings.ToLower(g) == lower {
			return group
		}
	}
	return append([]string{term}, group...)
}
