package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"talent-search-go/internal/config"
	"talent-search-go/internal/constants"
	"talent-search-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 键不存在，调用方用errors.Is判定缓存未命中
var ErrNotFound = redis.Nil

// 为Redis操作定义专用tracer
var redisTracer = otel.Tracer("talent-search-go/storage/redis")

// Redis操作前缀采样率配置
// 搜索结果缓存读写频繁，低采样；同义词缓存量小，全部保留意义不大但便于排查。
var redisKeySamplingRates = map[string]float64{
	constants.AppPrefix + ":" + constants.SearchModulePrefix + ":":  0.05,
	constants.AppPrefix + ":" + constants.SynonymModulePrefix + ":": 0.25,
}

var (
	rnd      *rand.Rand
	rndMutex sync.Mutex
)

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	rnd = rand.New(source)
}

// shouldSampleRedisOp 根据key前缀决定是否需要创建span
func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}

	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}

	// 默认采样率5%
	return randFloat() < 0.05
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// SearchResultKey 构建搜索结果缓存键
// 格式: app:search:result:{hrID}:{queryHash}
func SearchResultKey(hrID, queryHash string) string {
	return fmt.Sprintf(constants.KeySearchResult, hrID, queryHash)
}

// SynonymTermKey 构建同义词缓存键
func SynonymTermKey(term string) string {
	return fmt.Sprintf(constants.KeySynonymTerm, term)
}

// GetSearchResult 读取搜索结果缓存，未命中返回 (nil, nil)
func (r *Redis) GetSearchResult(ctx context.Context, key string) (*types.CachedSearchResult, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.GetSearchResult",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("db.redis.key", key)))
		defer span.End()
	}

	raw, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			if span != nil {
				span.SetAttributes(attribute.Bool("cache.hit", false))
				span.SetStatus(codes.Ok, "cache miss")
			}
			return nil, nil
		}
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, fmt.Errorf("读取搜索结果缓存失败: %w", err)
	}

	var cached types.CachedSearchResult
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		// 缓存内容损坏，按未命中处理，等待覆盖写入
		if span != nil {
			span.SetAttributes(attribute.String("error.type", "corrupt_cache_entry"))
			span.SetStatus(codes.Ok, "corrupt entry treated as miss")
		}
		return nil, nil
	}

	if span != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "")
	}
	return &cached, nil
}

// SetSearchResult 写入搜索结果缓存
func (r *Redis) SetSearchResult(ctx context.Context, key string, cached *types.CachedSearchResult, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("序列化搜索结果缓存失败: %w", err)
	}

	if err := r.Client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("写入搜索结果缓存失败: %w", err)
	}
	return nil
}

// GetSynonymGroup 读取词项的同义词缓存，未命中返回ErrNotFound
func (r *Redis) GetSynonymGroup(ctx context.Context, term string) ([]string, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	raw, err := r.Client.Get(ctx, SynonymTermKey(term)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取同义词缓存失败: %w", err)
	}

	var group []string
	if err := json.Unmarshal([]byte(raw), &group); err != nil {
		// 缓存内容损坏，按未命中处理，等待覆盖写入
		return nil, ErrNotFound
	}
	return group, nil
}

// SetSynonymGroup 写入词项的同义词缓存
func (r *Redis) SetSynonymGroup(ctx context.Context, term string, group []string, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	payload, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("序列化同义词缓存失败: %w", err)
	}

	if err := r.Client.Set(ctx, SynonymTermKey(term), payload, ttl).Err(); err != nil {
		return fmt.Errorf("写入同义词缓存失败: %w", err)
	}
	return nil
}
