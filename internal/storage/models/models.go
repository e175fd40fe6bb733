package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人主表
// SkillsJSON 存储技能名称数组，检索时通过 JSON_SEARCH / JSON_OVERLAPS 匹配。
type Candidate struct {
	CandidateID     string         `gorm:"type:char(36);primaryKey"`
	PrimaryName     string         `gorm:"type:varchar(255);index:idx_candidates_primary_name"`
	PrimaryPhone    string         `gorm:"type:varchar(50);uniqueIndex:idx_candidates_primary_phone_unique"`
	PrimaryEmail    string         `gorm:"type:varchar(255);uniqueIndex:idx_candidates_primary_email_unique"`
	Gender          string         `gorm:"type:varchar(10)"`
	CurrentLocation string         `gorm:"type:varchar(255);index:idx_candidates_current_location"`
	LastPosition    string         `gorm:"type:varchar(255);index:idx_candidates_last_position"`
	LastCompany     string         `gorm:"type:varchar(255);index:idx_candidates_last_company"`
	YearsOfExp      float64        `gorm:"type:decimal(4,1);default:0;index:idx_candidates_years_of_exp"`
	EducationLevel  string         `gorm:"type:varchar(50);index:idx_candidates_education_level"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"`
	ProfileSummary  string         `gorm:"type:text"`
	ConfidenceScore float64        `gorm:"type:decimal(4,3);default:0;index:idx_candidates_confidence_score"`
	RiskLevel       string         `gorm:"type:varchar(20)"`
	IsActive        bool           `gorm:"default:true;index:idx_candidates_is_active"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// Skills 反序列化技能JSON数组，异常数据返回空切片
func (c *Candidate) Skills() []string {
	if len(c.SkillsJSON) == 0 {
		return nil
	}
	var skills []string
	if err := json.Unmarshal(c.SkillsJSON, &skills); err != nil {
		return nil
	}
	return skills
}

// CandidateSkill 候选人-技能join表
// 由离线任务从SkillsJSON展开生成，供join表检索策略使用。
type CandidateSkill struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	CandidateID string    `gorm:"type:char(36);not null;index:idx_cs_candidate_id;uniqueIndex:idx_cs_candidate_skill,priority:1"`
	SkillName   string    `gorm:"type:varchar(100);not null;index:idx_cs_skill_name;uniqueIndex:idx_cs_candidate_skill,priority:2"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CandidateSkill) TableName() string {
	return "candidate_skills"
}

// SkillSynonym 技能同义词表，由运营离线维护
// 同一canonical下的所有词项互为同义词。
type SkillSynonym struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	CanonicalName string    `gorm:"type:varchar(100);not null;index:idx_ss_canonical_name"`
	Term          string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_ss_term"`
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (SkillSynonym) TableName() string {
	return "skill_synonyms"
}
