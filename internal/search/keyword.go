package search

import (
	"context"
	"encoding/json"
	"fmt"

	"talent-search-go/internal/config"
	"talent-search-go/internal/logger"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/storage/models"
	"talent-search-go/internal/types"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SkillStrategy 技能集合检索策略
// 两种实现对同一输入各自正确，但不保证排名一致，只能整体切换。
type SkillStrategy interface {
	// Name 策略标识，用于日志
	Name() string
	// ApplySkills 给查询追加技能集合谓词，集合内OR语义
	ApplySkills(db *gorm.DB, skills []string) *gorm.DB
}

// jsonSkillStrategy 基于候选人表skills_json列的JSON_OVERLAPS匹配
type jsonSkillStrategy struct{}

func (jsonSkillStrategy) Name() string { return "json_overlap" }

func (jsonSkillStrategy) ApplySkills(db *gorm.DB, skills []string) *gorm.DB {
	if len(skills) == 0 {
		return db
	}
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		cleaned = append(cleaned, StripArrayMeta(s))
	}
	// JSON_OVERLAPS 与参数化的JSON数组比较，不拼接用户输入
	arrayJSON, err := json.Marshal(cleaned)
	if err != nil {
		// 纯字符串数组序列化不会失败，兜底为不命中
		return db.Where("1 = 0")
	}
	return db.Where("JSON_OVERLAPS(skills_json, CAST(? AS JSON))", string(arrayJSON))
}

// joinTableStrategy 基于candidate_skills join表的IN子查询匹配
type joinTableStrategy struct{}

func (joinTableStrategy) Name() string { return "join_table" }

func (joinTableStrategy) ApplySkills(db *gorm.DB, skills []string) *gorm.DB {
	if len(skills) == 0 {
		return db
	}
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		cleaned = append(cleaned, StripArrayMeta(s))
	}
	sub := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.CandidateSkill{}).
		Select("candidate_id").
		Where("skill_name IN ?", cleaned)
	return db.Where("candidate_id IN (?)", sub)
}

// NewSkillStrategy 按配置选择技能检索策略
func NewSkillStrategy(cfg *config.SearchConfig) SkillStrategy {
	if cfg.UseJoinTable {
		return joinTableStrategy{}
	}
	return jsonSkillStrategy{}
}

// KeywordExecutor 关键词检索执行器
type KeywordExecutor struct {
	mysql    *storage.MySQL
	expander *SynonymExpander
	cfg      *config.SearchConfig
	strategy SkillStrategy
}

// NewKeywordExecutor 创建关键词检索执行器
func NewKeywordExecutor(mysql *storage.MySQL, expander *SynonymExpander, cfg *config.SearchConfig) *KeywordExecutor {
	return &KeywordExecutor{
		mysql:    mysql,
		expander: expander,
		cfg:      cfg,
		strategy: NewSkillStrategy(cfg),
	}
}

// groupCandidateCap 单个技能分组子查询的候选集上限
const groupCandidateCap = 500

// Execute 执行关键词检索
// 关键词之间AND语义；单个关键词的同义词集合内OR匹配技能数组、
// 最近职位、最近公司和姓名。返回按confidence降序的候选页和总数。
func (e *KeywordExecutor) Execute(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]models.Candidate, int64, error) {
	if plan.UseGroups {
		return e.executeGrouped(ctx, req, plan)
	}
	return e.executeSingle(ctx, req, plan, nil)
}

// executeSingle 单查询路径
// restrictIDs非空时，结果限定在该候选集合内（分组路径的后置过滤）。
func (e *KeywordExecutor) executeSingle(ctx context.Context, req *types.SearchRequest, plan *Plan, restrictIDs []string) ([]models.Candidate, int64, error) {
	base := e.buildBaseQuery(ctx, req)

	if restrictIDs != nil {
		if len(restrictIDs) == 0 {
			return nil, 0, nil
		}
		base = base.Where("candidate_id IN ?", restrictIDs)
	} else if len(plan.Skills) > 0 {
		base = e.strategy.ApplySkills(base, plan.Skills)
	}

	base = e.applyKeywords(ctx, base, plan, req.Filters.SynonymsEnabled())

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, NewInternalError("关键词检索计数失败", err)
	}

	var rows []models.Candidate
	if err := base.Order("confidence_score DESC").
		Offset(req.Offset).Limit(req.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, NewInternalError("关键词检索查询失败", err)
	}

	return rows, total, nil
}

// executeGrouped 并行分组路径
// 各分组子查询取各自的候选集，求并集后再按关键词后置过滤。
// 任一分组失败视为整体失败，不静默返回部分结果。
func (e *KeywordExecutor) executeGrouped(ctx context.Context, req *types.SearchRequest, plan *Plan) ([]models.Candidate, int64, error) {
	g, gctx := errgroup.WithContext(ctx)

	var groupIDs [5][]string
	for i, group := range plan.Groups {
		if group == nil {
			continue
		}
		i, group := i, group
		g.Go(func() error {
			var ids []string
			err := e.buildBaseQuery(gctx, req).
				Scopes(func(db *gorm.DB) *gorm.DB { return e.strategy.ApplySkills(db, group) }).
				Order("confidence_score DESC").
				Limit(groupCandidateCap).
				Pluck("candidate_id", &ids).Error
			if err != nil {
				return fmt.Errorf("技能分组%d子查询失败: %w", i, err)
			}
			groupIDs[i] = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, NewInternalError("并行技能分组检索失败", err)
	}

	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, ids := range groupIDs {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}

	logger.Ctx(ctx).Debug().
		Int("union_size", len(union)).
		Str("strategy", e.strategy.Name()).
		Msg("技能分组候选集合并完成")

	return e.executeSingle(ctx, req, plan, union)
}

// buildBaseQuery 构建带结构化过滤条件的基础查询
// 所有进入LIKE谓词的用户输入必须先过EscapeLike，数组谓词必须先过
// StripArrayMeta，每个调用点各自保证，不依赖上游。
func (e *KeywordExecutor) buildBaseQuery(ctx context.Context, req *types.SearchRequest) *gorm.DB {
	db := e.mysql.DB().WithContext(ctx).
		Model(&models.Candidate{}).
		Where("is_active = ?", true)

	f := req.Filters
	if f == nil {
		return db
	}

	if f.ExpYearsMin != nil {
		db = db.Where("years_of_exp >= ?", *f.ExpYearsMin)
	}
	if f.ExpYearsMax != nil {
		db = db.Where("years_of_exp <= ?", *f.ExpYearsMax)
	}
	if f.Location != "" {
		db = db.Where("current_location LIKE ?", EscapeLike(f.Location)+"%")
	}
	if f.EducationLevel != "" {
		db = db.Where("education_level = ?", f.EducationLevel)
	}
	if len(f.Companies) > 0 {
		companyCond := db.Session(&gorm.Session{NewDB: true})
		for i, company := range f.Companies {
			pattern := "%" + EscapeLike(company) + "%"
			if i == 0 {
				companyCond = companyCond.Where("last_company LIKE ?", pattern)
			} else {
				companyCond = companyCond.Or("last_company LIKE ?", pattern)
			}
		}
		db = db.Where(companyCond)
	}
	for _, company := range f.ExcludeCompanies {
		db = db.Where("last_company NOT LIKE ?", "%"+EscapeLike(company)+"%")
	}

	return db
}

// applyKeywords 追加关键词谓词
// 关键词之间AND，单关键词的同义词集合内OR。
func (e *KeywordExecutor) applyKeywords(ctx context.Context, db *gorm.DB, plan *Plan, expand bool) *gorm.DB {
	for _, keyword := range plan.Keywords {
		variants := []string{keyword}
		if expand {
			variants = e.expander.Expand(ctx, keyword)
		}

		cond := db.Session(&gorm.Session{NewDB: true})
		first := true
		for _, variant := range variants {
			pattern := "%" + EscapeLike(variant) + "%"
			arrayTerm := JSONSearchPattern(variant)
			if first {
				cond = cond.Where("primary_name LIKE ?", pattern)
				first = false
			} else {
				cond = cond.Or("primary_name LIKE ?", pattern)
			}
			cond = cond.Or("last_position LIKE ?", pattern).
				Or("last_company LIKE ?", pattern).
				Or("JSON_SEARCH(skills_json, 'one', ?) IS NOT NULL", arrayTerm)
		}
		db = db.Where(cond)
	}
	return db
}
