package search

import (
	"testing"

	"talent-search-go/internal/storage/models"

	"github.com/stretchr/testify/assert"

	"gorm.io/datatypes"
)

func TestPageOf(t *testing.T) {
	assert.Equal(t, 1, pageOf(0, 20))
	assert.Equal(t, 2, pageOf(20, 20))
	assert.Equal(t, 2, pageOf(25, 20))
	assert.Equal(t, 3, pageOf(40, 20))
	assert.Equal(t, 1, pageOf(0, 0))
}

func TestResultFromCandidate(t *testing.T) {
	row := &models.Candidate{
		CandidateID:     "cand-1",
		PrimaryName:     "张三",
		LastPosition:    "后端工程师",
		LastCompany:     "字节跳动",
		YearsOfExp:      5.5,
		CurrentLocation: "北京",
		SkillsJSON:      datatypes.JSON([]byte(`["Go","Redis"]`)),
		ConfidenceScore: 0.87,
		RiskLevel:       "low",
	}

	got := resultFromCandidate(row)
	assert.Equal(t, "cand-1", got.CandidateID)
	assert.Equal(t, "张三", got.Name)
	assert.Equal(t, "后端工程师", got.Role)
	assert.Equal(t, "字节跳动", got.Company)
	assert.Equal(t, 5.5, got.ExpYears)
	assert.Equal(t, "北京", got.Location)
	assert.Equal(t, []string{"Go", "Redis"}, got.Skills)
	assert.Equal(t, 0.87, got.Confidence)
	assert.Equal(t, "low", got.RiskLevel)
}

// TestResultFromCandidateBadSkillsJSON 技能JSON损坏时输出空数组而不是null
func TestResultFromCandidateBadSkillsJSON(t *testing.T) {
	row := &models.Candidate{
		CandidateID: "cand-2",
		SkillsJSON:  datatypes.JSON([]byte(`not-json`)),
	}

	got := resultFromCandidate(row)
	assert.NotNil(t, got.Skills)
	assert.Empty(t, got.Skills)
}

// TestKeywordScoreCurve 关键词模式的名次衰减分数单调非增且有下限
func TestKeywordScoreCurve(t *testing.T) {
	cfg := testSearchConfig()

	score := func(base, decay, floor float64, rank int) float64 {
		s := base - float64(rank)*decay
		if s < floor {
			s = floor
		}
		return s * 100
	}

	// 关键词曲线: max(0.70, 0.98 - i*0.02)
	assert.InDelta(t, 98.0, score(keywordScoreBase, cfg.KeywordDecay, cfg.KeywordFloor, 0), 1e-9)
	assert.InDelta(t, 96.0, score(keywordScoreBase, cfg.KeywordDecay, cfg.KeywordFloor, 1), 1e-9)
	assert.InDelta(t, 70.0, score(keywordScoreBase, cfg.KeywordDecay, cfg.KeywordFloor, 14), 1e-9)
	assert.InDelta(t, 70.0, score(keywordScoreBase, cfg.KeywordDecay, cfg.KeywordFloor, 50), 1e-9)

	// 降级曲线: max(0.60, 0.95 - i*0.03)
	assert.InDelta(t, 95.0, score(fallbackScoreBase, cfg.FallbackDecay, cfg.FallbackFloor, 0), 1e-9)
	assert.InDelta(t, 92.0, score(fallbackScoreBase, cfg.FallbackDecay, cfg.FallbackFloor, 1), 1e-9)
	assert.InDelta(t, 60.0, score(fallbackScoreBase, cfg.FallbackDecay, cfg.FallbackFloor, 40), 1e-9)

	prev := 101.0
	for i := 0; i < 60; i++ {
		s := score(keywordScoreBase, cfg.KeywordDecay, cfg.KeywordFloor, i)
		assert.LessOrEqual(t, s, prev, "分数必须单调非增")
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
		prev = s
	}
}
