package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"demo-tools/internal/config"
	"demo-tools/internal/logger"
)

// Cache 缓存接口
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
	Close() error
}

// New 根据配置创建缓存，Redis不可用时退化为内存缓存
func New(cfg config.RedisConfig) Cache {
	if cfg.Addr == "" {
		return NewMemoryCache()
	}

	redisCache, err := NewRedisCache(cfg)
	if err != nil {
		logger.Warnf("Redis连接失败，使用内存缓存: %v", err)
		return NewMemoryCache()
	}
	return redisCache
}

// RedisCache Redis缓存实现
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建Redis缓存实例
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}

	logger.Info("Redis连接成功")
	return &RedisCache{client: rdb}, nil
}

// Get 获取缓存值，键不存在时返回空字符串
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set 设置缓存值
func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// Del 删除缓存键
func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// DelPrefix 删除所有以 prefix 开头的键，使用SCAN避免阻塞Redis
func (r *RedisCache) DelPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, escapePattern(prefix)+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("扫描缓存键失败: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Close 关闭连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// MemoryCache 内存缓存实现（用于开发和测试）
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

type cacheItem struct {
	value      string
	expiration time.Time
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
	}
}

// Get 获取缓存值
func (m *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mutex.RLock()
	item, exists := m.data[key]
	m.mutex.RUnlock()

	if !exists {
		return "", nil
	}

	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		m.mutex.Lock()
		delete(m.data, key)
		m.mutex.Unlock()
		return "", nil
	}

	return item.value, nil
}

// Set 设置缓存值
func (m *MemoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	item := cacheItem{value: data}
	if expiration > 0 {
		item.expiration = time.Now().Add(expiration)
	}

	m.mutex.Lock()
	m.data[key] = item
	m.mutex.Unlock()
	return nil
}

// Del 删除缓存键
func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// DelPrefix 删除所有以 prefix 开头的键
func (m *MemoryCache) DelPrefix(ctx context.Context, prefix string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

// Close 清空缓存
func (m *MemoryCache) Close() error {
	m.mutex.Lock()
	m.data = make(map[string]cacheItem)
	m.mutex.Unlock()
	return nil
}

// escapePattern 转义Redis SCAN MATCH中的通配字符
func escapePattern(s string) string {
	return patternEscaper.Replace(s)
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		bytes, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("序列化缓存值失败: %w", err)
		}
		return string(bytes), nil
	}
}

// GenerateCacheKey 生成缓存键，参数按键名排序保证结果稳定
func GenerateCacheKey(prefix, path, method string, params map[string]string) string {
	key := fmt.Sprintf("%s:%s:%s", prefix, method, path)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key += fmt.Sprintf(":%s=%s", name, params[name])
	}
	return key
}
