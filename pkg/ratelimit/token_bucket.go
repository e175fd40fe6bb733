package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket 实现令牌桶算法的限流器
type TokenBucket struct {
	rate           float64    // 每秒生成的令牌数
	capacity       float64    // 桶的容量
	tokens         float64    // 当前令牌数
	lastRefillTime time.Time  // 上次填充令牌的时间
	mutex          sync.Mutex // 互斥锁，保证并发安全
}

// NewTokenBucket 创建一个新的令牌桶限流器
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	// 如果未指定容量，设置为QPM的一半
	if capacity <= 0 {
		capacity = qpm / 2
		if capacity <= 0 {
			capacity = 1
		}
	}

	return &TokenBucket{
		rate:           float64(qpm) / 60.0, // 转换为每秒速率
		capacity:       float64(capacity),
		tokens:         float64(capacity), // 初始填满
		lastRefillTime: time.Now(),
	}
}

// refill 根据经过的时间填充令牌
func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefillTime).Seconds()
	tb.lastRefillTime = now

	newTokens := elapsed * tb.rate

	if tb.tokens+newTokens > tb.capacity {
		tb.tokens = tb.capacity
	} else {
		tb.tokens += newTokens
	}
}

// Allow 判断是否允许通过一个请求，消耗一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// PerCallerLimiter 按调用方维护独立令牌桶的限流器
type PerCallerLimiter struct {
	qpm     int
	buckets sync.Map // callerID -> *TokenBucket
}

// NewPerCallerLimiter 创建按调用方限流的限流器
func NewPerCallerLimiter(qpm int) *PerCallerLimiter {
	return &PerCallerLimiter{qpm: qpm}
}

// Allow 判断指定调用方的请求是否放行
func (l *PerCallerLimiter) Allow(callerID string) bool {
	bucket, ok := l.buckets.Load(callerID)
	if !ok {
		bucket, _ = l.buckets.LoadOrStore(callerID, NewTokenBucket(l.qpm, 0))
	}
	return bucket.(*TokenBucket).Allow()
}
