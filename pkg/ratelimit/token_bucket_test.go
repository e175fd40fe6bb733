package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenBucketExhaustion 初始满桶，耗尽后拒绝
func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(60, 3)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "令牌耗尽后应拒绝")
}

// TestTokenBucketRefill 按时间流逝补充令牌
func TestTokenBucketRefill(t *testing.T) {
	// 600 QPM = 每秒10个令牌
	tb := NewTokenBucket(600, 1)

	require.True(t, tb.Allow())
	require.False(t, tb.Allow())

	time.Sleep(150 * time.Millisecond)
	assert.True(t, tb.Allow(), "等待后应补充出至少一个令牌")
}

func TestTokenBucketDefaultCapacity(t *testing.T) {
	// 未指定容量时为QPM的一半
	tb := NewTokenBucket(60, 0)
	for i := 0; i < 30; i++ {
		require.True(t, tb.Allow(), "第%d个请求应放行", i)
	}
	assert.False(t, tb.Allow())

	// QPM过小时容量兜底为1
	tb = NewTokenBucket(1, 0)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

// TestPerCallerLimiterIsolation 每个调用方独立桶，互不挤占
func TestPerCallerLimiterIsolation(t *testing.T) {
	l := NewPerCallerLimiter(4)

	// hr-1 耗尽自己的桶(容量 = 4/2 = 2)
	require.True(t, l.Allow("hr-1"))
	require.True(t, l.Allow("hr-1"))
	require.False(t, l.Allow("hr-1"))

	// hr-2 不受影响
	assert.True(t, l.Allow("hr-2"))
	assert.True(t, l.Allow("hr-2"))
	assert.False(t, l.Allow("hr-2"))
}

func TestPerCallerLimiterConcurrentAccess(t *testing.T) {
	l := NewPerCallerLimiter(6000)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				l.Allow("hr-shared")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	// 无竞态崩溃即通过，桶容量3000足以放行全部800个请求
	assert.True(t, l.Allow("hr-shared"))
}
