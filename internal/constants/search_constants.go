package constants

import "time"

const (
	// Search-mode cache TTLs. 带过滤条件的检索结果变化更慢，允许更长TTL。
	CacheShortTTL        = 5 * time.Minute
	CacheShortSoftTTL    = 2 * time.Minute
	CacheFilteredTTL     = 15 * time.Minute
	CacheFilteredSoftTTL = 10 * time.Minute
	CacheSemanticTTL     = 30 * time.Minute
	CacheSemanticSoftTTL = 20 * time.Minute

	// SynonymCacheTTL 同义词表的缓存周期，表数据由运营离线维护，更新频率低
	SynonymCacheTTL = 6 * time.Hour

	// MatchTypeSemantic 语义向量召回
	MatchTypeSemantic = "semantic"
	// MatchTypeKeyword 关键词检索
	MatchTypeKeyword = "keyword"
	// MatchTypeFallback 语义链路故障后的关键词降级
	MatchTypeFallback = "keyword_fallback"
)
