package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket 用令牌桶算法实现 RateLimiter，允许不超过桶容量的突发请求。
// 上传接口用它限制单实例的并发写入压力。
type TokenBucket struct {
	rate          float64   // 每秒生成的令牌数
	capacity      float64   // 桶的最大令牌数（突发上限）
	tokens        float64   // 当前令牌数
	lastTokenTime time.Time // 上次补充令牌的时间
	mutex         sync.Mutex
}

// NewTokenBucket 创建一个令牌桶，初始为满。
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:          rate,
		capacity:      float64(capacity),
		tokens:        float64(capacity),
		lastTokenTime: time.Now(),
	}
}

// Allow 按经过的时间补充令牌，再尝试消费一个。
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastTokenTime)
	if elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTokenTime = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
