package search

import (
	"strings"
	"unicode"

	"talent-search-go/internal/config"
	"talent-search-go/internal/types"
)

// EscapeLike 转义LIKE模式中的特殊字符
// 反斜杠必须最先处理，否则会二次转义后续替换引入的反斜杠。
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// StripArrayMeta 去除数组谓词中的括号类元字符
// 进入JSON_OVERLAPS / match-any谓词的值不允许携带结构字符。
func StripArrayMeta(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '{', '}':
			return -1
		}
		return r
	}, s)
}

// JSONSearchPattern 生成进入JSON_SEARCH的搜索串
// JSON_SEARCH把搜索串按LIKE模式解释，通配符同样要转义，
// 结构字符先剥除。
func JSONSearchPattern(s string) string {
	return EscapeLike(StripArrayMeta(s))
}

// stripControl 去除控制字符，保留普通空白
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
}

// NormalizeQuery 清理查询文本
func NormalizeQuery(query string) string {
	return strings.TrimSpace(stripControl(query))
}

// Sanitizer 对所有不可信输入做清理和边界校验
type Sanitizer struct {
	cfg *config.SearchConfig
}

// NewSanitizer 创建输入清理器
func NewSanitizer(cfg *config.SearchConfig) *Sanitizer {
	return &Sanitizer{cfg: cfg}
}

// Normalize 校验并归一化搜索请求
// 成功时返回归一化后的请求副本，任何越界输入都不会进入查询层。
// limit/offset越界静默钳制，不报错。
func (s *Sanitizer) Normalize(req *types.SearchRequest) (*types.SearchRequest, error) {
	if req == nil {
		return nil, NewValidationError("body", "请求体不能为空")
	}

	normalized := &types.SearchRequest{}

	query := NormalizeQuery(req.Query)
	if query == "" {
		return nil, NewValidationError("query", "查询文本不能为空")
	}
	if len([]rune(query)) > s.cfg.MaxQueryLength {
		return nil, NewValidationError("query", "查询文本超过最大长度")
	}
	normalized.Query = query

	if req.Filters != nil {
		filters, err := s.normalizeFilters(req.Filters)
		if err != nil {
			return nil, err
		}
		normalized.Filters = filters
	}

	// limit钳制到[1,max]，0按默认值处理
	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	normalized.Limit = limit

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	normalized.Offset = offset

	return normalized, nil
}

func (s *Sanitizer) normalizeFilters(f *types.SearchFilters) (*types.SearchFilters, error) {
	out := &types.SearchFilters{
		ExpandSynonyms: f.ExpandSynonyms,
	}

	if f.ExpYearsMin != nil {
		if *f.ExpYearsMin < 0 || *f.ExpYearsMin > 100 {
			return nil, NewValidationError("filters.expYearsMin", "工作年限需在0-100之间")
		}
		v := *f.ExpYearsMin
		out.ExpYearsMin = &v
	}
	if f.ExpYearsMax != nil {
		if *f.ExpYearsMax < 0 || *f.ExpYearsMax > 100 {
			return nil, NewValidationError("filters.expYearsMax", "工作年限需在0-100之间")
		}
		v := *f.ExpYearsMax
		out.ExpYearsMax = &v
	}
	if out.ExpYearsMin != nil && out.ExpYearsMax != nil && *out.ExpYearsMin > *out.ExpYearsMax {
		return nil, NewValidationError("filters.expYearsMin", "最低年限不能大于最高年限")
	}

	if len(f.Skills) > s.cfg.MaxSkillFilters {
		return nil, NewValidationError("filters.skills", "技能过滤条目过多")
	}
	for _, skill := range f.Skills {
		cleaned := strings.TrimSpace(stripControl(skill))
		if cleaned == "" {
			continue
		}
		if len([]rune(cleaned)) > s.cfg.MaxSkillLength {
			return nil, NewValidationError("filters.skills", "单个技能超过最大长度")
		}
		out.Skills = append(out.Skills, cleaned)
	}

	location := strings.TrimSpace(stripControl(f.Location))
	if len([]rune(location)) > s.cfg.MaxLocationLength {
		return nil, NewValidationError("filters.location", "地点超过最大长度")
	}
	out.Location = location

	var err error
	out.Companies, err = s.normalizeCompanyList(f.Companies, "filters.companies")
	if err != nil {
		return nil, err
	}
	out.ExcludeCompanies, err = s.normalizeCompanyList(f.ExcludeCompanies, "filters.excludeCompanies")
	if err != nil {
		return nil, err
	}

	out.EducationLevel = strings.TrimSpace(stripControl(f.EducationLevel))

	return out, nil
}

func (s *Sanitizer) normalizeCompanyList(companies []string, field string) ([]string, error) {
	if len(companies) > s.cfg.MaxCompanyFilters {
		return nil, NewValidationError(field, "公司过滤条目过多")
	}
	var out []string
	for _, company := range companies {
		cleaned := strings.TrimSpace(stripControl(company))
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
	}
	return out, nil
}
