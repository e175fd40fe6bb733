package search

import (
	"context"
	"fmt"
	"sort"

	"talent-search-go/internal/config"
	"talent-search-go/internal/logger"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
)

// CandidateHit 语义召回聚合后的单候选人命中
// Score是该候选人所有命中分块的最高相似度，范围[0,1]。
type CandidateHit struct {
	CandidateID string
	Score       float64
	Chunks      []types.MatchedChunk
}

// VectorSearcher 语义执行器消费的向量召回接口，生产实现是storage.Qdrant
type VectorSearcher interface {
	SearchCandidates(ctx context.Context, vector []float32, limit int, filter *types.SearchFilters, skillGroup []string) ([]storage.VectorHit, error)
	SearchCandidateGroups(ctx context.Context, req *types.GroupSearchRequest) ([5][]storage.VectorHit, error)
}

// SemanticExecutor 语义检索执行器
// embedding或向量RPC任何一步失败都返回错误，由编排层静默降级到关键词检索。
type SemanticExecutor struct {
	vector   VectorSearcher
	embedder embedding.Embedder
	cfg      *config.SearchConfig
}

// NewSemanticExecutor 创建语义检索执行器
func NewSemanticExecutor(vector VectorSearcher, embedder embedding.Embedder, cfg *config.SearchConfig) *SemanticExecutor {
	return &SemanticExecutor{
		vector:   vector,
		embedder: embedder,
		cfg:      cfg,
	}
}

// maxChunksPerCandidate 单候选人保留的命中分块数
const maxChunksPerCandidate = 3

// Execute 执行语义检索，返回按分数降序的候选人命中列表
func (e *SemanticExecutor) Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]CandidateHit, error) {
	if e.vector == nil {
		return nil, fmt.Errorf("向量数据库不可用")
	}
	if e.embedder == nil {
		return nil, fmt.Errorf("embedding服务不可用")
	}

	vectors, err := e.embedder.EmbedStrings(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("查询向量化失败: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding服务返回空向量")
	}

	vector := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		vector[i] = float32(v)
	}

	// 召回量要覆盖分页窗口，再留出分块聚合到候选人的折损
	recallLimit := (req.Offset + req.Limit) * maxChunksPerCandidate
	if recallLimit < 30 {
		recallLimit = 30
	}

	var hits []storage.VectorHit
	if plan.UseGroups {
		grouped, err := e.vector.SearchCandidateGroups(ctx, &types.GroupSearchRequest{
			Vector: vector,
			Groups: plan.Groups,
			Limit:  recallLimit,
			Filter: req.Filters,
		})
		if err != nil {
			return nil, fmt.Errorf("并行分组向量召回失败: %w", err)
		}
		for _, groupHits := range grouped {
			hits = append(hits, groupHits...)
		}
	} else {
		hits, err = e.vector.SearchCandidates(ctx, vector, recallLimit, req.Filters, plan.Skills)
		if err != nil {
			return nil, fmt.Errorf("向量召回失败: %w", err)
		}
	}

	aggregated := aggregateHits(hits)

	logger.Ctx(ctx).Debug().
		Int("raw_hits", len(hits)).
		Int("candidates", len(aggregated)).
		Bool("grouped", plan.UseGroups).
		Msg("语义召回聚合完成")

	return aggregated, nil
}

// aggregateHits 将分块级命中聚合为候选人级命中
// 候选人分数取其分块最高分，命中分块按分数保留前几个。
func aggregateHits(hits []storage.VectorHit) []CandidateHit {
	byCandidate := make(map[string]*CandidateHit)
	var order []string

	for _, hit := range hits {
		candidateID := payloadString(hit.Payload, "candidate_id")
		if candidateID == "" {
			continue
		}

		agg, ok := byCandidate[candidateID]
		if !ok {
			agg = &CandidateHit{CandidateID: candidateID}
			byCandidate[candidateID] = agg
			order = append(order, candidateID)
		}

		score := float64(hit.Score)
		if score > agg.Score {
			agg.Score = score
		}
		agg.Chunks = append(agg.Chunks, types.MatchedChunk{
			ChunkType: payloadString(hit.Payload, "chunk_type"),
			Content:   payloadString(hit.Payload, "content"),
			Score:     score,
		})
	}

	out := make([]CandidateHit, 0, len(order))
	for _, id := range order {
		agg := byCandidate[id]
		sort.Slice(agg.Chunks, func(i, j int) bool {
			return agg.Chunks[i].Score > agg.Chunks[j].Score
		})
		if len(agg.Chunks) > maxChunksPerCandidate {
			agg.Chunks = agg.Chunks[:maxChunksPerCandidate]
		}
		out = append(out, *agg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
