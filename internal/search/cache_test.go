package search

import (
	"context"
	"strings"
	"testing"

	"talent-search-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCacheKeyOrderIndependent 过滤数组乱序不改变缓存键
func TestCacheKeyOrderIndependent(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())

	a := &types.SearchFilters{
		Skills:           []string{"React", "Vue", "Angular"},
		Companies:        []string{"字节跳动", "腾讯"},
		ExcludeCompanies: []string{"外包A", "外包B"},
	}
	b := &types.SearchFilters{
		Skills:           []string{"Vue", "Angular", "React"},
		Companies:        []string{"腾讯", "字节跳动"},
		ExcludeCompanies: []string{"外包B", "外包A"},
	}

	keyA := m.Key("hr-1", "前端工程师", a, 20, 0)
	keyB := m.Key("hr-1", "前端工程师", b, 20, 0)
	assert.Equal(t, keyA, keyB, "数组顺序不应影响缓存键")

	// 键是确定性的
	assert.Equal(t, keyA, m.Key("hr-1", "前端工程师", a, 20, 0))
}

// TestCacheKeyDiscriminates 任一语义维度变化都要产生不同的键
func TestCacheKeyDiscriminates(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())

	base := func() *types.SearchFilters {
		return &types.SearchFilters{Skills: []string{"Go"}}
	}
	baseKey := m.Key("hr-1", "golang", base(), 20, 0)

	// 调用方隔离
	assert.NotEqual(t, baseKey, m.Key("hr-2", "golang", base(), 20, 0))

	// 查询文本
	assert.NotEqual(t, baseKey, m.Key("hr-1", "java", base(), 20, 0))

	// 分页
	assert.NotEqual(t, baseKey, m.Key("hr-1", "golang", base(), 20, 20))
	assert.NotEqual(t, baseKey, m.Key("hr-1", "golang", base(), 50, 0))

	// 过滤条件
	withLoc := base()
	withLoc.Location = "北京"
	assert.NotEqual(t, baseKey, m.Key("hr-1", "golang", withLoc, 20, 0))

	// 同义词开关
	off := false
	withSynOff := base()
	withSynOff.ExpandSynonyms = &off
	assert.NotEqual(t, baseKey, m.Key("hr-1", "golang", withSynOff, 20, 0))
}

func TestCacheKeyNilFilters(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())

	key := m.Key("hr-1", "golang", nil, 20, 0)
	require.NotEmpty(t, key)
	assert.True(t, strings.HasPrefix(key, "app:search:result:hr-1:"))
	assert.Equal(t, key, m.Key("hr-1", "golang", nil, 20, 0))
}

// TestCacheStrategySelection 语义查询 > 过滤查询 > 短查询 三级TTL
func TestCacheStrategySelection(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())

	// 超过语义阈值(字符数)走semantic档，即使带过滤
	st := m.Strategy("有五年经验的资深后端工程师", &types.SearchFilters{Location: "上海"})
	assert.Equal(t, "semantic", st.Name)

	// 短查询带过滤走filtered档
	st = m.Strategy("golang", &types.SearchFilters{Location: "上海"})
	assert.Equal(t, "filtered", st.Name)

	// 短查询无过滤走short档
	st = m.Strategy("golang", nil)
	assert.Equal(t, "short", st.Name)

	// 阈值按字符数计，10个汉字不超阈值
	st = m.Strategy(strings.Repeat("字", 10), nil)
	assert.Equal(t, "short", st.Name)
	st = m.Strategy(strings.Repeat("字", 11), nil)
	assert.Equal(t, "semantic", st.Name)
}

func TestCacheStrategyTTLOrdering(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())

	assert.Greater(t, m.semantic.TTL, m.filtered.TTL)
	assert.Greater(t, m.filtered.TTL, m.short.TTL)
	assert.Less(t, m.short.SoftTTL, m.short.TTL)
	assert.Less(t, m.filtered.SoftTTL, m.filtered.TTL)
	assert.Less(t, m.semantic.SoftTTL, m.semantic.TTL)
}

// TestCacheNoRedisIsNoop Redis缺失时读写都是no-op，不panic
func TestCacheNoRedisIsNoop(t *testing.T) {
	m := NewCacheManager(nil, testSearchConfig())
	ctx := context.Background()

	hit := m.Get(ctx, "app:search:result:hr-1:abc", m.short)
	assert.Nil(t, hit)

	// 写入不应panic
	m.Set(ctx, "app:search:result:hr-1:abc", types.SearchData{}, m.short)
}

func TestCanonicalListDoesNotMutateInput(t *testing.T) {
	items := []string{"c", "a", "b"}
	got := canonicalList(items)
	assert.Equal(t, "a,b,c", got)
	assert.Equal(t, []string{"c", "a", "b"}, items, "排序必须在副本上进行")

	assert.Equal(t, "", canonicalList(nil))
}
