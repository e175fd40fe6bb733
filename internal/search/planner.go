package search

import (
	"context"
	"strings"
	"unicode"

	"talent-search-go/internal/config"
	"talent-search-go/internal/types"
)

// Mode 检索模式
type Mode string

const (
	// ModeSemantic 语义向量检索
	ModeSemantic Mode = "semantic"
	// ModeKeyword 关键词检索
	ModeKeyword Mode = "keyword"
)

// Plan 一次搜索的执行计划
type Plan struct {
	Mode     Mode
	Keywords []string // 分词后的离散关键词

	// UseGroups 为true时走并行分组执行，Groups按槽位填充，未用槽位为nil
	UseGroups bool
	Groups    [5][]string

	// Skills 单查询路径下同义词扩展后的平铺技能集合
	Skills []string
}

// Planner 查询规划器
type Planner struct {
	cfg      *config.SearchConfig
	expander *SynonymExpander
}

// NewPlanner 创建查询规划器
func NewPlanner(cfg *config.SearchConfig, expander *SynonymExpander) *Planner {
	return &Planner{cfg: cfg, expander: expander}
}

// Plan 生成执行计划
// 模式判定按归一化查询的字符数：短查询多为实体名/技能名，精确匹配更准；
// 长自然语言查询的意图靠向量召回。
func (p *Planner) Plan(ctx context.Context, req *types.SearchRequest) *Plan {
	plan := &Plan{
		Keywords: ParseKeywords(req.Query),
	}

	if len([]rune(req.Query)) > p.cfg.SemanticThreshold {
		plan.Mode = ModeSemantic
	} else {
		plan.Mode = ModeKeyword
	}

	var skills []string
	expandEnabled := true
	if req.Filters != nil {
		skills = req.Filters.Skills
		expandEnabled = req.Filters.SynonymsEnabled()
	}

	// 技能过滤≥2条时分组并行：单查询OR大量扩展词项会拖垮后端的查询规划，
	// 分组限制了每个子查询的谓词规模。
	if len(skills) >= 2 {
		plan.UseGroups = true
		plan.Groups = p.buildSkillGroups(ctx, skills, expandEnabled)
	} else if len(skills) == 1 {
		plan.Skills = p.expandGroup(ctx, skills, expandEnabled)
	}

	return plan
}

// buildSkillGroups 将技能过滤划分为至多5个分组槽位
// 每组独立做同义词扩展；超过5个技能时round-robin分摊。
func (p *Planner) buildSkillGroups(ctx context.Context, skills []string, expand bool) [5][]string {
	maxGroups := p.cfg.MaxSkillGroups
	if maxGroups <= 0 || maxGroups > 5 {
		maxGroups = 5
	}

	var clusters [5][]string
	for i, skill := range skills {
		slot := i % maxGroups
		clusters[slot] = append(clusters[slot], skill)
	}

	var groups [5][]string
	for i, cluster := range clusters {
		if cluster == nil {
			continue
		}
		groups[i] = p.expandGroup(ctx, cluster, expand)
	}
	return groups
}

// expandGroup 对一组技能做同义词扩展
func (p *Planner) expandGroup(ctx context.Context, skills []string, expand bool) []string {
	if !expand {
		out := make([]string, len(skills))
		copy(out, skills)
		return out
	}
	return p.expander.ExpandMany(ctx, skills, p.cfg.MaxExpandedTerms)
}

// runeClass 区分用于分词边界判定的字符类别
type runeClass int

const (
	classSeparator runeClass = iota // 空白、逗号等分隔符
	classLatin                      // 拉丁字母、数字及词内符号
	classCJK                        // 汉字、谚文、假名等东亚文字
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsSpace(r) || r == ',' || r == '，' || r == ';' || r == '；':
		return classSeparator
	case unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
		return classCJK
	default:
		return classLatin
	}
}

// ParseKeywords 将查询文本切分为离散关键词
// 切分边界：空白、逗号、以及拉丁与东亚文字之间的书写系统切换，
// 例如 "React개발자" 切为 ["React", "개발자"]。
func ParseKeywords(query string) []string {
	var keywords []string
	var current strings.Builder
	prevClass := classSeparator

	flush := func() {
		if current.Len() > 0 {
			keywords = append(keywords, current.String())
			current.Reset()
		}
	}

	for _, r := range query {
		class := classify(r)
		if class == classSeparator {
			flush()
			prevClass = classSeparator
			continue
		}
		if prevClass != classSeparator && class != prevClass {
			flush()
		}
		current.WriteRune(r)
		prevClass = class
	}
	flush()

	return keywords
}
