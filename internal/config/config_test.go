package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromFile 验证YAML配置文件能被完整加载
func TestLoadConfigFromFile(t *testing.T) {
	yamlContent := `
server:
  address: ":8889"
  search_qpm: 120
  api_keys:
    key-abc: "hr-1"
    key-def: "hr-2"
search:
  max_query_length: 300
  semantic_threshold: 15
  use_join_table: true
  keyword_decay: 0.05
mysql:
  host: "127.0.0.1"
  port: 3306
  database: "talent"
`
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err, "加载合法配置不应返回错误")
	require.NotNil(t, cfg)

	assert.Equal(t, ":8889", cfg.Server.Address)
	assert.Equal(t, 120, cfg.Server.SearchQPM)
	assert.Equal(t, map[string]string{"key-abc": "hr-1", "key-def": "hr-2"}, cfg.Server.APIKeys)

	// 显式配置覆盖默认值
	assert.Equal(t, 300, cfg.Search.MaxQueryLength)
	assert.Equal(t, 15, cfg.Search.SemanticThreshold)
	assert.True(t, cfg.Search.UseJoinTable)
	assert.InDelta(t, 0.05, cfg.Search.KeywordDecay, 1e-9)

	assert.Equal(t, "talent", cfg.MySQL.Database)
}

// TestLoadConfigAppliesDefaults 未配置的检索边界回落到内置默认值
func TestLoadConfigAppliesDefaults(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  address: \":8080\"\n"), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Search.MaxQueryLength)
	assert.Equal(t, 20, cfg.Search.MaxSkillFilters)
	assert.Equal(t, 50, cfg.Search.MaxSkillLength)
	assert.Equal(t, 100, cfg.Search.MaxLocationLength)
	assert.Equal(t, 10, cfg.Search.MaxCompanyFilters)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 10, cfg.Search.SemanticThreshold)
	assert.Equal(t, 5, cfg.Search.MaxSkillGroups)
	assert.InDelta(t, 0.02, cfg.Search.KeywordDecay, 1e-9)
	assert.InDelta(t, 0.70, cfg.Search.KeywordFloor, 1e-9)
	assert.InDelta(t, 0.03, cfg.Search.FallbackDecay, 1e-9)
	assert.InDelta(t, 0.60, cfg.Search.FallbackFloor, 1e-9)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not: a: map"), 0644))

	_, err = LoadConfig(configPath)
	assert.Error(t, err, "非法YAML应返回错误")
}

// TestGetDuration 时长字符串解析，非法或为空时回落默认值
func TestGetDuration(t *testing.T) {
	assert.Equal(t, 15*time.Second, GetDuration("15s", time.Minute))
	assert.Equal(t, 2*time.Hour, GetDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}

func TestCreateSampleConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	samplePath := filepath.Join(tmpDir, "sample.yaml")
	require.NoError(t, CreateSampleConfig(samplePath))

	// 生成的示例配置必须能被加载回来
	cfg, err := LoadConfig(samplePath)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Server.Address)
}
