package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// 重试设置
	MaxRetries        int `yaml:"max_retries"`          // 最大重试次数
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"` // 最小重试间隔(毫秒)
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"` // 最大重试间隔(毫秒)
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int `yaml:"max_open_conns"` // 最大打开连接数
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`  // 连接最大生命周期(分钟)
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"` // 空闲连接最大生命周期(分钟)
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"` // 连接超时(秒)
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`    // 读取超时(秒)
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`   // 写入超时(秒)
	// 日志设置
	LogLevel int `yaml:"log_level"` // 日志级别(1-4)
}

// QdrantConfig Qdrant向量数据库配置
type QdrantConfig struct {
	Endpoint           string `yaml:"endpoint"`             // Qdrant HTTP 服务地址
	Collection         string `yaml:"collection"`           // 集合名称
	Dimension          int    `yaml:"dimension"`            // 向量维度
	APIKey             string `yaml:"api_key,omitempty"`    // (可选) Qdrant API Key
	DefaultSearchLimit int    `yaml:"default_search_limit"` // 默认搜索结果数量
}

// EmbeddingConfig Aliyun Embedding specific configuration
type EmbeddingConfig struct {
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string            `yaml:"address"`  // 例如 ":8080" or "0.0.0.0:8080"
	APIKeys map[string]string `yaml:"api_keys"` // API Key -> HR ID 的映射，供认证中间件使用
	// 限流设置：每个调用方每分钟允许的搜索请求数
	SearchQPM int `yaml:"search_qpm"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// TracingConfig OpenTelemetry追踪配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // 是否启用追踪上报
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP gRPC collector 地址
	SampleRatio  float64 `yaml:"sample_ratio"`  // 采样率 0-1
}

// SearchConfig 搜索引擎的核心参数
type SearchConfig struct {
	// 输入校验边界
	MaxQueryLength    int `yaml:"max_query_length"`    // 查询文本最大长度
	MaxSkillFilters   int `yaml:"max_skill_filters"`   // skills过滤器最大条目数
	MaxSkillLength    int `yaml:"max_skill_length"`    // 单个技能最大长度
	MaxLocationLength int `yaml:"max_location_length"` // 地点最大长度
	MaxCompanyFilters int `yaml:"max_company_filters"` // 公司过滤器最大条目数
	MaxLimit          int `yaml:"max_limit"`           // limit上限
	DefaultLimit      int `yaml:"default_limit"`       // 默认limit

	// 检索模式判定与并行分组
	SemanticThreshold int  `yaml:"semantic_threshold"` // 查询字符数超过该值使用语义检索
	MaxSkillGroups    int  `yaml:"max_skill_groups"`   // 并行技能分组槽位数
	MaxExpandedTerms  int  `yaml:"max_expanded_terms"` // 同义词扩展后的总词项上限
	UseJoinTable      bool `yaml:"use_join_table"`     // 启用join表技能检索策略

	// 匹配分数衰减曲线(保持单调递减形状，常量可调)
	KeywordDecay  float64 `yaml:"keyword_decay"`
	KeywordFloor  float64 `yaml:"keyword_floor"`
	FallbackDecay float64 `yaml:"fallback_decay"`
	FallbackFloor float64 `yaml:"fallback_floor"`

	// 请求级超时
	RequestTimeout string `yaml:"request_timeout"` // 例如 "15s"

	// 缓存TTL分级(字符串时长，空则用默认值)
	CacheShortTTL        string `yaml:"cache_short_ttl"`
	CacheShortSoftTTL    string `yaml:"cache_short_soft_ttl"`
	CacheFilteredTTL     string `yaml:"cache_filtered_ttl"`
	CacheFilteredSoftTTL string `yaml:"cache_filtered_soft_ttl"`
	CacheSemanticTTL     string `yaml:"cache_semantic_ttl"`
	CacheSemanticSoftTTL string `yaml:"cache_semantic_soft_ttl"`
	SynonymCacheTTL      string `yaml:"synonym_cache_ttl"`
}

// Config 应用程序配置
type Config struct {
	Aliyun struct {
		APIKey    string          `yaml:"api_key"`
		Embedding EmbeddingConfig `yaml:"embedding"` // Embedding specific config
	} `yaml:"aliyun"`

	Qdrant QdrantConfig `yaml:"qdrant"`

	// MySQL配置
	MySQL MySQLConfig `yaml:"mysql"`

	// Redis配置
	Redis RedisConfig `yaml:"redis"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 搜索引擎配置
	Search SearchConfig `yaml:"search"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 追踪配置
	Tracing TracingConfig `yaml:"tracing"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		// 尝试在常见位置查找配置文件
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".talent-search", "config.yaml"),
		}

		// 获取当前可执行文件路径
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 如果仍找不到配置文件，在测试环境返回默认配置，否则使用默认路径
		if configPath == "" {
			if inTestEnvironment() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); err != nil {
		if inTestEnvironment() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置文件
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	}
	if envEndpoint := os.Getenv("QDRANT_ENDPOINT"); envEndpoint != "" {
		config.Qdrant.Endpoint = envEndpoint
	}

	applyDefaults(&config)
	return &config, nil
}

// inTestEnvironment 通过命令行参数粗略检测是否运行在 go test 之下
func inTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// applyDefaults 填充未配置项的默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.SearchQPM <= 0 {
		config.Server.SearchQPM = 120
	}

	if config.Aliyun.Embedding.Model == "" {
		config.Aliyun.Embedding.Model = "text-embedding-v3"
	}
	if config.Aliyun.Embedding.Dimensions == 0 {
		config.Aliyun.Embedding.Dimensions = 1024
	}
	if config.Aliyun.Embedding.BaseURL == "" {
		config.Aliyun.Embedding.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}

	if config.Qdrant.Collection == "" {
		config.Qdrant.Collection = "candidate_profiles"
	}
	if config.Qdrant.Dimension == 0 {
		config.Qdrant.Dimension = 1024
	}
	if config.Qdrant.DefaultSearchLimit <= 0 {
		config.Qdrant.DefaultSearchLimit = 100
	}

	s := &config.Search
	if s.MaxQueryLength <= 0 {
		s.MaxQueryLength = 500
	}
	if s.MaxSkillFilters <= 0 {
		s.MaxSkillFilters = 20
	}
	if s.MaxSkillLength <= 0 {
		s.MaxSkillLength = 50
	}
	if s.MaxLocationLength <= 0 {
		s.MaxLocationLength = 100
	}
	if s.MaxCompanyFilters <= 0 {
		s.MaxCompanyFilters = 10
	}
	if s.MaxLimit <= 0 {
		s.MaxLimit = 100
	}
	if s.DefaultLimit <= 0 {
		s.DefaultLimit = 20
	}
	if s.SemanticThreshold <= 0 {
		s.SemanticThreshold = 10
	}
	if s.MaxSkillGroups <= 0 {
		s.MaxSkillGroups = 5
	}
	if s.MaxExpandedTerms <= 0 {
		s.MaxExpandedTerms = 24
	}
	if s.KeywordDecay <= 0 {
		s.KeywordDecay = 0.02
	}
	if s.KeywordFloor <= 0 {
		s.KeywordFloor = 0.70
	}
	if s.FallbackDecay <= 0 {
		s.FallbackDecay = 0.03
	}
	if s.FallbackFloor <= 0 {
		s.FallbackFloor = 0.60
	}
	if s.RequestTimeout == "" {
		s.RequestTimeout = "15s"
	}

	if config.Tracing.SampleRatio <= 0 {
		config.Tracing.SampleRatio = 0.1
	}
}

// 创建一个默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}

	config.Qdrant.Endpoint = "http://localhost:6333"
	config.Qdrant.Collection = "candidate_profiles"
	config.Qdrant.Dimension = 1024

	// MySQL默认配置
	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Password = "password"
	config.MySQL.Database = "talent_search"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 100
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 4 // Info级别

	// Redis默认配置
	config.Redis.Address = "localhost:6379"
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.MinRetryBackoffMS = 8
	config.Redis.MaxRetryBackoffMS = 512
	config.Redis.ConnMaxLifetimeMinutes = 60
	config.Redis.ConnMaxIdleTimeMinutes = 30

	// 日志默认配置
	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	// 获取环境变量
	if envKey := os.Getenv("ALIYUN_API_KEY"); envKey != "" {
		config.Aliyun.APIKey = envKey
	} else {
		config.Aliyun.APIKey = "test_api_key"
	}

	applyDefaults(config)
	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	// 检查文件是否已存在
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	// 将默认配置序列化为YAML
	data, err := yaml.Marshal(createDefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}

	fmt.Printf("示例配置文件已创建: %s\n", filePath)
	return nil
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
