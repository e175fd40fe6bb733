package types

// SearchFilters 搜索请求的结构化过滤条件
type SearchFilters struct {
	ExpYearsMin      *int     `json:"expYearsMin,omitempty"`      // 最低工作年限（含）
	ExpYearsMax      *int     `json:"expYearsMax,omitempty"`      // 最高工作年限（含）
	Skills           []string `json:"skills,omitempty"`           // 技能过滤，条目间OR语义
	Location         string   `json:"location,omitempty"`         // 期望工作地点，前缀匹配
	Companies        []string `json:"companies,omitempty"`        // 公司过滤，条目间OR语义
	ExcludeCompanies []string `json:"excludeCompanies,omitempty"` // 排除公司
	EducationLevel   string   `json:"educationLevel,omitempty"`   // 学历，精确匹配
	ExpandSynonyms   *bool    `json:"expandSynonyms,omitempty"`   // 是否做同义词扩展，默认开启
}

// HasFilters 判断是否携带任意结构化过滤条件
func (f *SearchFilters) HasFilters() bool {
	if f == nil {
		return false
	}
	return f.ExpYearsMin != nil || f.ExpYearsMax != nil ||
		len(f.Skills) > 0 || f.Location != "" ||
		len(f.Companies) > 0 || len(f.ExcludeCompanies) > 0 ||
		f.EducationLevel != ""
}

// SynonymsEnabled 同义词扩展默认开启，显式false才关闭
func (f *SearchFilters) SynonymsEnabled() bool {
	if f == nil || f.ExpandSynonyms == nil {
		return true
	}
	return *f.ExpandSynonyms
}

// SearchRequest POST /search 的请求体
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *SearchFilters `json:"filters,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Offset  int            `json:"offset,omitempty"`
}

// MatchedChunk 语义召回命中的简历片段
type MatchedChunk struct {
	ChunkType string  `json:"chunkType"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

// SearchResult 单个候选人的搜索命中
// MatchScore 是归一化到0-100的百分比分数，结果列表按其单调非增排序。
type SearchResult struct {
	CandidateID   string         `json:"candidateId"`
	Name          string         `json:"name"`
	Role          string         `json:"role"`
	Company       string         `json:"company"`
	ExpYears      float64        `json:"expYears"`
	Location      string         `json:"location"`
	Skills        []string       `json:"skills"`
	Confidence    float64        `json:"confidence"`
	RiskLevel     string         `json:"riskLevel"`
	MatchScore    float64        `json:"matchScore"`
	MatchType     string         `json:"matchType"` // semantic / keyword / keyword_fallback
	MatchedChunks []MatchedChunk `json:"matchedChunks"`
}

// FacetCount 单个分面取值及其命中数
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SearchFacets 对当前结果集的分面统计
type SearchFacets struct {
	Skills          []FacetCount `json:"skills"`
	Companies       []FacetCount `json:"companies"`
	ExperienceRange []FacetCount `json:"experienceRange"`
}

// SearchData 搜索响应的data部分
type SearchData struct {
	Results        []SearchResult `json:"results"`
	Total          int64          `json:"total"`
	Facets         SearchFacets   `json:"facets"`
	ParsedKeywords []string       `json:"parsedKeywords"`
}

// SearchMeta 搜索响应的meta部分
// 缓存命中时填充CacheAge（秒），未命中时填充ResponseTime（毫秒）。
type SearchMeta struct {
	Total        int64  `json:"total"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
	Cached       bool   `json:"cached"`
	CacheAge     *int64 `json:"cacheAge,omitempty"`
	ResponseTime *int64 `json:"responseTime,omitempty"`
}

// SearchResponse POST /search 的完整响应体
type SearchResponse struct {
	Data SearchData `json:"data"`
	Meta SearchMeta `json:"meta"`
}

// CachedSearchResult 写入Redis的缓存载荷，带生成时间用于计算cacheAge
type CachedSearchResult struct {
	Data      SearchData `json:"data"`
	CreatedAt int64      `json:"createdAt"` // Unix秒
}

// GroupSearchRequest 语义检索的并行技能分组请求
// Groups固定5个槽位，未使用的槽位保持nil，下游按槽位序发起批量召回。
type GroupSearchRequest struct {
	Vector []float32      `json:"vector"`
	Groups [5][]string    `json:"groups"`
	Limit  int            `json:"limit"`
	Filter *SearchFilters `json:"filter,omitempty"`
}
