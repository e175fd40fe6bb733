package search

import (
	"sort"

	"talent-search-go/internal/types"
)

const (
	maxSkillFacets   = 30
	maxCompanyFacets = 20
)

// 经验分桶固定为四档，顺序即展示顺序
var experienceBuckets = []string{"0-3", "3-5", "5-10", "10+"}

// experienceBucket 按工作年限归桶
func experienceBucket(expYears float64) string {
	switch {
	case expYears < 3:
		return "0-3"
	case expYears < 5:
		return "3-5"
	case expYears < 10:
		return "5-10"
	default:
		return "10+"
	}
}

// AggregateFacets 对返回给调用方的结果集做分面统计
// 只统计最终结果集，保证分面数字与列表内容严格一致。
// 不做大小写归一，口径在数据摄入侧统一。
func AggregateFacets(results []types.SearchResult) types.SearchFacets {
	skillCounts := make(map[string]int)
	companyCounts := make(map[string]int)
	expCounts := make(map[string]int)

	for _, result := range results {
		for _, skill := range result.Skills {
			skillCounts[skill]++
		}
		if result.Company != "" {
			companyCounts[result.Company]++
		}
		expCounts[experienceBucket(result.ExpYears)]++
	}

	facets := types.SearchFacets{
		Skills:    topCounts(skillCounts, maxSkillFacets),
		Companies: topCounts(companyCounts, maxCompanyFacets),
	}

	facets.ExperienceRange = make([]types.FacetCount, 0, len(experienceBuckets))
	for _, bucket := range experienceBuckets {
		facets.ExperienceRange = append(facets.ExperienceRange, types.FacetCount{
			Value: bucket,
			Count: expCounts[bucket],
		})
	}

	return facets
}

// topCounts 按计数降序取前n个，同计数按取值字典序保证确定性
func topCounts(counts map[string]int, n int) []types.FacetCount {
	out := make([]types.FacetCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, types.FacetCount{Value: value, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}
