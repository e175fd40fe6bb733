package search

import (
	"context"
	"time"

	"talent-search-go/internal/config"
	"talent-search-go/internal/constants"
	"talent-search-go/internal/logger"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/storage/models"
	"talent-search-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
)

// 启发式分数的衰减起点，按排名线性衰减到各自下限
const (
	keywordScoreBase  = 0.98
	fallbackScoreBase = 0.95
)

// cacheWriteTimeout 异步缓存写入的独立超时，与请求生命周期解耦
const cacheWriteTimeout = 3 * time.Second

// SemanticSearcher 语义路径执行接口
type SemanticSearcher interface {
	Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]CandidateHit, error)
}

// KeywordSearcher 关键词路径执行接口
type KeywordSearcher interface {
	Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]models.Candidate, int64, error)
}

// CandidateHydrator 按ID水合候选人行，保持输入顺序
type CandidateHydrator interface {
	GetCandidatesByIDs(ctx context.Context, ids []string) ([]models.Candidate, error)
}

// Service 搜索服务，聚合整条检索管线
// 所有协作方按接口注入，不使用包级单例。
type Service struct {
	sanitizer *Sanitizer
	cache     *CacheManager
	expander  *SynonymExpander
	planner   *Planner
	semantic  SemanticSearcher
	keyword   KeywordSearcher
	hydrator  CandidateHydrator
	cfg       *config.SearchConfig

	requestTimeout time.Duration
}

// NewService 创建搜索服务
// Redis/Qdrant可能降级缺失，接口字段不能塞入有类型的nil指针。
func NewService(store *storage.Storage, embedder embedding.Embedder, cfg *config.SearchConfig) *Service {
	var resultStore ResultStore
	var synonymCache SynonymCache
	if store.Redis != nil {
		resultStore = store.Redis
		synonymCache = store.Redis
	}
	var vector VectorSearcher
	if store.Qdrant != nil {
		vector = store.Qdrant
	}

	expander := NewSynonymExpander(store.MySQL, synonymCache, cfg)
	return &Service{
		sanitizer:      NewSanitizer(cfg),
		cache:          NewCacheManager(resultStore, cfg),
		expander:       expander,
		planner:        NewPlanner(cfg, expander),
		semantic:       NewSemanticExecutor(vector, embedder, cfg),
		keyword:        NewKeywordExecutor(store.MySQL, expander, cfg),
		hydrator:       store.MySQL,
		cfg:            cfg,
		requestTimeout: config.GetDuration(cfg.RequestTimeout, 15*time.Second),
	}
}

// Search 执行一次完整搜索
// 管线：清理校验 → 缓存查找 → 规划 → 执行 → 分面 → 组装 → 异步回写缓存。
func (s *Service) Search(ctx context.Context, callerID string, raw *types.SearchRequest) (*types.SearchResponse, error) {
	start := time.Now()

	req, err := s.sanitizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	strategy := s.cache.Strategy(req.Query, req.Filters)
	key := s.cache.Key(callerID, req.Query, req.Filters, req.Limit, req.Offset)

	// 新鲜的缓存命中短路整条管线
	if hit := s.cache.Get(ctx, key, strategy); hit != nil && !hit.IsStale {
		age := hit.CacheAge
		return &types.SearchResponse{
			Data: hit.Data,
			Meta: types.SearchMeta{
				Total:    hit.Data.Total,
				Page:     pageOf(req.Offset, req.Limit),
				Limit:    req.Limit,
				Cached:   true,
				CacheAge: &age,
			},
		}, nil
	}

	plan := s.planner.Plan(ctx, req)

	var results []types.SearchResult
	var total int64

	if plan.Mode == ModeSemantic {
		results, total, err = s.executeSemantic(ctx, req, plan)
	} else {
		results, total, err = s.executeKeyword(ctx, req, plan, constants.MatchTypeKeyword)
	}
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = make([]types.SearchResult, 0)
	}

	data := types.SearchData{
		Results:        results,
		Total:          total,
		Facets:         AggregateFacets(results),
		ParsedKeywords: plan.Keywords,
	}

	// 缓存回写不阻塞响应，用独立context脱离请求生命周期
	go func() {
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cacheCancel()
		s.cache.Set(cacheCtx, key, data, strategy)
	}()

	responseTime := time.Since(start).Milliseconds()
	return &types.SearchResponse{
		Data: data,
		Meta: types.SearchMeta{
			Total:        total,
			Page:         pageOf(req.Offset, req.Limit),
			Limit:        req.Limit,
			Cached:       false,
			ResponseTime: &responseTime,
		},
	}, nil
}

// executeSemantic 语义路径
// embedding或向量召回失败时静默降级到关键词检索，调用方感知不到错误，
// 只会拿到置信度更低的启发式分数。
func (s *Service) executeSemantic(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]types.SearchResult, int64, error) {
	hits, err := s.semantic.Execute(ctx, req, plan)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("query_mode", string(plan.Mode)).
			Msg("语义检索失败，降级到关键词检索")
		return s.executeKeyword(ctx, req, plan, constants.MatchTypeFallback)
	}

	total := int64(len(hits))

	// 先分页再水合，避免整页以外的候选人白查数据库
	if req.Offset >= len(hits) {
		return nil, total, nil
	}
	end := req.Offset + req.Limit
	if end > len(hits) {
		end = len(hits)
	}
	page := hits[req.Offset:end]

	ids := make([]string, 0, len(page))
	hitByID := make(map[string]CandidateHit, len(page))
	for _, hit := range page {
		ids = append(ids, hit.CandidateID)
		hitByID[hit.CandidateID] = hit
	}

	candidates, err := s.hydrator.GetCandidatesByIDs(ctx, ids)
	if err != nil {
		return nil, 0, NewInternalError("候选人信息水合失败", err)
	}

	results := make([]types.SearchResult, 0, len(candidates))
	for _, row := range candidates {
		hit := hitByID[row.CandidateID]
		result := resultFromCandidate(&row)
		result.MatchScore = hit.Score * 100
		result.MatchType = constants.MatchTypeSemantic
		result.MatchedChunks = hit.Chunks
		if result.MatchedChunks == nil {
			result.MatchedChunks = make([]types.MatchedChunk, 0)
		}
		results = append(results, result)
	}

	return results, total, nil
}

// executeKeyword 关键词路径（主路径和语义降级共用）
// 分数按排名线性衰减，降级路径起点更低，表明置信度打了折。
func (s *Service) executeKeyword(ctx context.Context, req *types.SearchRequest, plan *Plan, matchType string) ([]types.SearchResult, int64, error) {
	rows, total, err := s.keyword.Execute(ctx, req, plan)
	if err != nil {
		return nil, 0, err
	}

	base, decay, floor := keywordScoreBase, s.cfg.KeywordDecay, s.cfg.KeywordFloor
	if matchType == constants.MatchTypeFallback {
		base, decay, floor = fallbackScoreBase, s.cfg.FallbackDecay, s.cfg.FallbackFloor
	}

	results := make([]types.SearchResult, 0, len(rows))
	for i, row := range rows {
		score := base - float64(req.Offset+i)*decay
		if score < floor {
			score = floor
		}
		result := resultFromCandidate(&row)
		result.MatchScore = score * 100
		result.MatchType = matchType
		result.MatchedChunks = make([]types.MatchedChunk, 0)
		results = append(results, result)
	}

	return results, total, nil
}

// resultFromCandidate 候选人行到搜索结果的投影
func resultFromCandidate(row *models.Candidate) types.SearchResult {
	skills := row.Skills()
	if skills == nil {
		skills = make([]string, 0)
	}
	return types.SearchResult{
		CandidateID: row.CandidateID,
		Name:        row.PrimaryName,
		Role:        row.LastPosition,
		Company:     row.LastCompany,
		ExpYears:    row.YearsOfExp,
		Location:    row.CurrentLocation,
		Skills:      skills,
		Confidence:  row.ConfidenceScore,
		RiskLevel:   row.RiskLevel,
	}
}

func pageOf(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
