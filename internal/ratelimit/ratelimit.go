package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// TokenBucketLimiter 令牌桶速率限制器，每个键一个桶
type TokenBucketLimiter struct {
	buckets map[string]*rate.Limiter
	mutex   sync.Mutex
}

// NewTokenBucketLimiter 创建令牌桶限制器
func NewTokenBucketLimiter() *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow 检查是否允许请求
func (tbl *TokenBucketLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	tbl.mutex.Lock()
	limiter, exists := tbl.buckets[key]
	if !exists {
		// 每秒最多limit个请求，突发容量为limit
		limiter = rate.NewLimiter(rate.Limit(limit), limit)
		tbl.buckets[key] = limiter
	}
	tbl.mutex.Unlock()

	return limiter.Allow(), nil
}

// Pacer 控制顺序发出的请求之间的最小间隔
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer 创建发送节流器，rps<=0 表示不限速
func NewPacer(rps float64) *Pacer {
	if rps <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait 阻塞直到允许发送下一个请求或上下文结束
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// GenerateRateLimitKey 生成速率限制键
func GenerateRateLimitKey(clientIP, userID, path string) string {
	if userID != "" {
		return fmt.Sprintf("user:%s:%s", userID, path)
	}
	return fmt.Sprintf("ip:%s:%s", clientIP, path)
}
