package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"talent-search-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSynonymSource 同义词表替身，记录查表次数
type stubSynonymSource struct {
	groups map[string][]string
	err    error
	calls  int
}

func (s *stubSynonymSource) GetSynonymsByTerm(ctx context.Context, term string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.groups[term], nil
}

// stubSynonymCache 内存版同义词缓存，语义对齐storage.Redis：未命中返回ErrNotFound
type stubSynonymCache struct {
	entries map[string][]string
	sets    int
}

func (c *stubSynonymCache) GetSynonymGroup(ctx context.Context, term string) ([]string, error) {
	if group, ok := c.entries[term]; ok {
		return group, nil
	}
	return nil, storage.ErrNotFound
}

func (c *stubSynonymCache) SetSynonymGroup(ctx context.Context, term string, group []string, ttl time.Duration) error {
	if c.entries == nil {
		c.entries = make(map[string][]string)
	}
	c.entries[term] = group
	c.sets++
	return nil
}

// TestEnsureContains 扩展结果必须包含原词项，大小写不敏感判断
func TestEnsureContains(t *testing.T) {
	// 已包含(同大小写)时原样返回
	got := ensureContains([]string{"React", "ReactJS"}, "React")
	assert.Equal(t, []string{"React", "ReactJS"}, got)

	// 已包含(大小写不同)时不重复追加
	got = ensureContains([]string{"react", "reactjs"}, "React")
	assert.Equal(t, []string{"react", "reactjs"}, got)

	// 缺失时原词项前插
	got = ensureContains([]string{"reactjs", "react.js"}, "React")
	assert.Equal(t, []string{"React", "reactjs", "react.js"}, got)

	got = ensureContains(nil, "Go")
	assert.Equal(t, []string{"Go"}, got)
}

// TestExpandCacheMissFallsThroughAndWritesBack 缓存未命中走权威表并回写缓存，
// 第二次扩展命中缓存不再查表
func TestExpandCacheMissFallsThroughAndWritesBack(t *testing.T) {
	source := &stubSynonymSource{groups: map[string][]string{
		"react": {"react", "reactjs", "react.js"},
	}}
	cache := &stubSynonymCache{}
	e := NewSynonymExpander(source, cache, testSearchConfig())

	got := e.Expand(context.Background(), "React")
	assert.Equal(t, []string{"react", "reactjs", "react.js"}, got)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, cache.sets, "查表结果应回写缓存")

	got = e.Expand(context.Background(), "react")
	assert.Equal(t, []string{"react", "reactjs", "react.js"}, got)
	assert.Equal(t, 1, source.calls, "缓存命中后不应再触发查表")
}

// TestExpandSourceFailureDegradesToTerm 查表失败按未扩展处理，只返回原词项
func TestExpandSourceFailureDegradesToTerm(t *testing.T) {
	source := &stubSynonymSource{err: fmt.Errorf("connection refused")}
	e := NewSynonymExpander(source, nil, testSearchConfig())

	got := e.Expand(context.Background(), "React")
	assert.Equal(t, []string{"React"}, got)
}

// TestExpandManyKeepsOriginalTermsUnderCap maxTerms收紧时丢弃的是扩展词，
// 调用方给出的每个原词项都必须保留
func TestExpandManyKeepsOriginalTermsUnderCap(t *testing.T) {
	source := &stubSynonymSource{groups: map[string][]string{
		"react": {"react", "reactjs", "react.js", "react native"},
		"vue":   {"vue", "vuejs", "vue.js"},
		"go":    {"go", "golang"},
	}}
	e := NewSynonymExpander(source, nil, testSearchConfig())

	got := e.ExpandMany(context.Background(), []string{"React", "Vue", "Go"}, 5)
	require.LessOrEqual(t, len(got), 5)
	assert.Contains(t, got, "React")
	assert.Contains(t, got, "Vue")
	assert.Contains(t, got, "Go", "排在后面的原词项不能被前面的扩展词挤掉")
}

// TestExpandManyNoCap maxTerms为0时不限量，并集按首次出现顺序去重
func TestExpandManyNoCap(t *testing.T) {
	source := &stubSynonymSource{groups: map[string][]string{
		"go": {"go", "golang"},
	}}
	e := NewSynonymExpander(source, nil, testSearchConfig())

	got := e.ExpandMany(context.Background(), []string{"Go", "golang"}, 0)
	assert.Equal(t, []string{"Go", "golang"}, got)
}
