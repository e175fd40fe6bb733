package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"talent-search-go/internal/constants"
	"talent-search-go/internal/storage/models"
	"talent-search-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSemanticSearcher 语义路径替身
type stubSemanticSearcher struct {
	hits []CandidateHit
	err  error
}

func (s *stubSemanticSearcher) Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]CandidateHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

// stubKeywordSearcher 关键词路径替身，记录调用次数
type stubKeywordSearcher struct {
	rows  []models.Candidate
	total int64
	err   error
	calls int
}

func (s *stubKeywordSearcher) Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]models.Candidate, int64, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.rows, s.total, nil
}

// stubHydrator 按请求ID顺序返回候选人行，模拟水合契约
type stubHydrator struct {
	rows map[string]models.Candidate
}

func (s *stubHydrator) GetCandidatesByIDs(ctx context.Context, ids []string) ([]models.Candidate, error) {
	out := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// memoryResultStore 内存版搜索结果缓存，语义对齐storage.Redis：未命中返回(nil, nil)
type memoryResultStore struct {
	mu      sync.Mutex
	entries map[string]*types.CachedSearchResult
}

func newMemoryResultStore() *memoryResultStore {
	return &memoryResultStore{entries: make(map[string]*types.CachedSearchResult)}
}

func (m *memoryResultStore) GetSearchResult(ctx context.Context, key string) (*types.CachedSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *memoryResultStore) SetSearchResult(ctx context.Context, key string, cached *types.CachedSearchResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = cached
	return nil
}

func (m *memoryResultStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newStubService(cache *CacheManager, semantic SemanticSearcher, keyword KeywordSearcher, hydrator CandidateHydrator) *Service {
	cfg := testSearchConfig()
	return &Service{
		sanitizer:      NewSanitizer(cfg),
		cache:          cache,
		planner:        NewPlanner(cfg, nil),
		semantic:       semantic,
		keyword:        keyword,
		hydrator:       hydrator,
		cfg:            cfg,
		requestTimeout: 15 * time.Second,
	}
}

// TestSearchSemanticFailureFallsBackToKeyword 语义路径失败时整条请求不报错，
// 静默降级到关键词检索并用降级分数曲线打分
func TestSearchSemanticFailureFallsBackToKeyword(t *testing.T) {
	rows := []models.Candidate{
		{CandidateID: "cand-1", PrimaryName: "张伟", LastPosition: "Go后端工程师"},
		{CandidateID: "cand-2", PrimaryName: "李娜", LastPosition: "平台研发"},
	}
	keyword := &stubKeywordSearcher{rows: rows, total: 2}
	semantic := &stubSemanticSearcher{err: fmt.Errorf("embedding服务超时")}
	svc := newStubService(NewCacheManager(nil, testSearchConfig()), semantic, keyword, nil)

	resp, err := svc.Search(context.Background(), "hr-001", &types.SearchRequest{
		Query: "有五年经验的资深Go后端工程师",
	})
	require.NoError(t, err, "语义失败必须降级而不是向上抛错")
	require.NotNil(t, resp)
	require.Len(t, resp.Data.Results, 2)
	assert.Equal(t, 1, keyword.calls, "降级应该恰好执行一次关键词检索")

	for _, r := range resp.Data.Results {
		assert.Equal(t, constants.MatchTypeFallback, r.MatchType)
	}
	// 降级分数从0.95起按排名衰减
	assert.InDelta(t, 95.0, resp.Data.Results[0].MatchScore, 1e-9)
	assert.InDelta(t, 92.0, resp.Data.Results[1].MatchScore, 1e-9)
	assert.False(t, resp.Meta.Cached)
	require.NotNil(t, resp.Meta.ResponseTime)
}

// TestSearchSemanticHydratesInHitOrder 语义命中按相似度顺序水合成完整结果
func TestSearchSemanticHydratesInHitOrder(t *testing.T) {
	semantic := &stubSemanticSearcher{hits: []CandidateHit{
		{CandidateID: "cand-b", Score: 0.91, Chunks: []types.MatchedChunk{{ChunkType: "experience", Content: "负责搜索引擎"}}},
		{CandidateID: "cand-a", Score: 0.84},
	}}
	hydrator := &stubHydrator{rows: map[string]models.Candidate{
		"cand-a": {CandidateID: "cand-a", PrimaryName: "王芳"},
		"cand-b": {CandidateID: "cand-b", PrimaryName: "刘强"},
	}}
	svc := newStubService(NewCacheManager(nil, testSearchConfig()), semantic, &stubKeywordSearcher{}, hydrator)

	resp, err := svc.Search(context.Background(), "hr-001", &types.SearchRequest{
		Query: "熟悉向量检索的资深搜索工程师",
	})
	require.NoError(t, err)
	require.Len(t, resp.Data.Results, 2)

	assert.Equal(t, "cand-b", resp.Data.Results[0].CandidateID, "结果顺序必须跟随相似度排序")
	assert.InDelta(t, 91.0, resp.Data.Results[0].MatchScore, 1e-9)
	assert.Equal(t, constants.MatchTypeSemantic, resp.Data.Results[0].MatchType)
	assert.Len(t, resp.Data.Results[0].MatchedChunks, 1)

	assert.Equal(t, "cand-a", resp.Data.Results[1].CandidateID)
	assert.NotNil(t, resp.Data.Results[1].MatchedChunks, "无命中片段时保持空数组而不是null")
	assert.Equal(t, int64(2), resp.Meta.Total)
}

// TestSearchSecondIdenticalRequestHitsCache 第二次相同请求命中缓存，
// 短路执行器并在meta中标记cached与cacheAge
func TestSearchSecondIdenticalRequestHitsCache(t *testing.T) {
	store := newMemoryResultStore()
	keyword := &stubKeywordSearcher{rows: []models.Candidate{{CandidateID: "cand-1", PrimaryName: "张伟"}}, total: 1}
	svc := newStubService(NewCacheManager(store, testSearchConfig()), &stubSemanticSearcher{}, keyword, nil)

	first, err := svc.Search(context.Background(), "hr-001", &types.SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.False(t, first.Meta.Cached)

	// 缓存回写在独立goroutine中完成，等它落盘
	require.Eventually(t, func() bool { return store.size() > 0 },
		time.Second, 10*time.Millisecond, "异步缓存写入应在请求返回后完成")

	second, err := svc.Search(context.Background(), "hr-001", &types.SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.True(t, second.Meta.Cached)
	require.NotNil(t, second.Meta.CacheAge)
	assert.GreaterOrEqual(t, *second.Meta.CacheAge, int64(0))
	assert.Equal(t, 1, keyword.calls, "缓存命中不应再触发检索执行器")
	assert.Equal(t, first.Data.Results, second.Data.Results, "缓存结果必须与实时结果一致")
}
