package search

import (
	"testing"

	"talent-search-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkHit(candidateID, chunkType, content string, score float32) storage.VectorHit {
	return storage.VectorHit{
		Score: score,
		Payload: map[string]interface{}{
			"candidate_id": candidateID,
			"chunk_type":   chunkType,
			"content":      content,
		},
	}
}

// TestAggregateHits 分块命中聚合为候选人命中，分数取分块最高分
func TestAggregateHits(t *testing.T) {
	hits := []storage.VectorHit{
		chunkHit("cand-a", "SKILLS", "golang redis", 0.72),
		chunkHit("cand-b", "EXPERIENCE", "三年后端", 0.91),
		chunkHit("cand-a", "EXPERIENCE", "五年后端", 0.85),
		chunkHit("cand-b", "SKILLS", "java", 0.60),
	}

	got := aggregateHits(hits)
	require.Len(t, got, 2)

	// 按候选人最高分降序
	assert.Equal(t, "cand-b", got[0].CandidateID)
	assert.InDelta(t, 0.91, got[0].Score, 1e-6)
	assert.Equal(t, "cand-a", got[1].CandidateID)
	assert.InDelta(t, 0.85, got[1].Score, 1e-6)

	// 候选人内部分块按分数降序
	require.Len(t, got[1].Chunks, 2)
	assert.Equal(t, "EXPERIENCE", got[1].Chunks[0].ChunkType)
	assert.Equal(t, "SKILLS", got[1].Chunks[1].ChunkType)
}

// TestAggregateHitsChunkTruncation 单候选人只保留前3个命中分块
func TestAggregateHitsChunkTruncation(t *testing.T) {
	hits := []storage.VectorHit{
		chunkHit("cand-a", "c1", "1", 0.50),
		chunkHit("cand-a", "c2", "2", 0.90),
		chunkHit("cand-a", "c3", "3", 0.70),
		chunkHit("cand-a", "c4", "4", 0.80),
		chunkHit("cand-a", "c5", "5", 0.60),
	}

	got := aggregateHits(hits)
	require.Len(t, got, 1)
	require.Len(t, got[0].Chunks, maxChunksPerCandidate)
	assert.Equal(t, "c2", got[0].Chunks[0].ChunkType)
	assert.Equal(t, "c4", got[0].Chunks[1].ChunkType)
	assert.Equal(t, "c3", got[0].Chunks[2].ChunkType)
	assert.InDelta(t, 0.90, got[0].Score, 1e-6)
}

// TestAggregateHitsSkipsMissingCandidateID payload缺失候选人ID的命中直接丢弃
func TestAggregateHitsSkipsMissingCandidateID(t *testing.T) {
	hits := []storage.VectorHit{
		{Score: 0.9, Payload: map[string]interface{}{"content": "没有candidate_id"}},
		{Score: 0.8, Payload: nil},
		chunkHit("cand-a", "SKILLS", "golang", 0.7),
	}

	got := aggregateHits(hits)
	require.Len(t, got, 1)
	assert.Equal(t, "cand-a", got[0].CandidateID)
}

func TestAggregateHitsEmpty(t *testing.T) {
	assert.Empty(t, aggregateHits(nil))
}

// TestAggregateHitsStableOrder 同分候选人保持首次命中顺序
func TestAggregateHitsStableOrder(t *testing.T) {
	hits := []storage.VectorHit{
		chunkHit("cand-x", "SKILLS", "a", 0.80),
		chunkHit("cand-y", "SKILLS", "b", 0.80),
	}

	got := aggregateHits(hits)
	require.Len(t, got, 2)
	assert.Equal(t, "cand-x", got[0].CandidateID)
	assert.Equal(t, "cand-y", got[1].CandidateID)
}

func TestPayloadString(t *testing.T) {
	payload := map[string]interface{}{"s": "value", "n": 42}
	assert.Equal(t, "value", payloadString(payload, "s"))
	assert.Equal(t, "", payloadString(payload, "n"))
	assert.Equal(t, "", payloadString(payload, "missing"))
	assert.Equal(t, "", payloadString(nil, "s"))
}
