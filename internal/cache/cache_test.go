package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demo-tools/internal/config"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, c.Set(ctx, "text", "hello", 0))
	require.NoError(t, c.Set(ctx, "json", map[string]int{"a": 1}, time.Minute))

	val, _ = c.Get(ctx, "text")
	assert.Equal(t, "hello", val)
	val, _ = c.Get(ctx, "json")
	assert.JSONEq(t, `{"a":1}`, val)

	require.NoError(t, c.Del(ctx, "text"))
	val, _ = c.Get(ctx, "text")
	assert.Empty(t, val)
}

func TestMemoryCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	val, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestNewFallsBackToMemory(t *testing.T) {
	assert.IsType(t, &MemoryCache{}, New(config.RedisConfig{}))
	// 端口0不可连接，退化为内存缓存
	assert.IsType(t, &MemoryCache{}, New(config.RedisConfig{Addr: "127.0.0.1:0", PoolSize: 1}))
}

func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "response:GET:/api/users", GenerateCacheKey("response", "/api/users", "GET", nil))
	assert.Equal(t,
		"response:GET:/api/users:a=1:b=2",
		GenerateCacheKey("response", "/api/users", "GET", map[string]string{"b": "2", "a": "1"}))
}

func TestMemoryCacheDelPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	for _, key := range []string{"response:GET:/api/users", "response:GET:/api/users:page=2", "response:GET:/health"} {
		require.NoError(t, c.Set(ctx, key, "v", 0))
	}

	require.NoError(t, c.DelPrefix(ctx, "response:GET:/api/users"))

	val, _ := c.Get(ctx, "response:GET:/api/users")
	assert.Empty(t, val)
	val, _ = c.Get(ctx, "response:GET:/api/users:page=2")
	assert.Empty(t, val)
	val, _ = c.Get(ctx, "response:GET:/health")
	assert.Equal(t, "v", val)
}

func TestEscapePattern(t *testing.T) {
	assert.Equal(t, "response:GET:/api/users", escapePattern("response:GET:/api/users"))
	assert.Equal(t, `a\*b\?c\[d\]`, escapePattern("a*b?c[d]"))
}
