package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"demo-tools/internal/auth"
	"demo-tools/internal/cache"
	"demo-tools/internal/logger"
	"demo-tools/internal/metrics"
	"demo-tools/internal/models"
	"demo-tools/internal/ratelimit"
)

// Middleware 中间件接口
type Middleware interface {
	Handle() gin.HandlerFunc
	Name() string
}

func abort(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, models.ApiResponse{
		Code:    status,
		Message: message,
	})
}

// CORSMiddleware 跨域中间件
type CORSMiddleware struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	allowCredentials bool
	maxAge           time.Duration
}

// NewCORSMiddleware 创建CORS中间件
func NewCORSMiddleware(allowOrigins []string, maxAge time.Duration) *CORSMiddleware {
	return &CORSMiddleware{
		allowOrigins:     allowOrigins,
		allowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		allowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		exposeHeaders:    []string{"Content-Length"},
		allowCredentials: true,
		maxAge:           maxAge,
	}
}

// Name 返回中间件名称
func (c *CORSMiddleware) Name() string {
	return "cors"
}

// Handle 处理CORS
func (c *CORSMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range c.allowOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Vary", "Origin")
			if c.allowCredentials {
				ctx.Header("Access-Control-Allow-Credentials", "true")
			}
			ctx.Header("Access-Control-Allow-Methods", strings.Join(c.allowMethods, ", "))
			ctx.Header("Access-Control-Allow-Headers", strings.Join(c.allowHeaders, ", "))
			ctx.Header("Access-Control-Expose-Headers", strings.Join(c.exposeHeaders, ", "))
			if c.maxAge > 0 {
				ctx.Header("Access-Control-Max-Age", fmt.Sprintf("%.0f", c.maxAge.Seconds()))
			}
		}

		// 处理预检请求
		if ctx.Request.Method == http.MethodOptions {
			if !allowed {
				ctx.AbortWithStatus(http.StatusForbidden)
				return
			}
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

// LoggingMiddleware 日志中间件
type LoggingMiddleware struct{}

// NewLoggingMiddleware 创建日志中间件
func NewLoggingMiddleware() *LoggingMiddleware {
	return &LoggingMiddleware{}
}

// Name 返回中间件名称
func (l *LoggingMiddleware) Name() string {
	return "logging"
}

// Handle 处理日志记录
func (l *LoggingMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.WithFields(logrus.Fields{
			"status":     ctx.Writer.Status(),
			"latency":    time.Since(start),
			"client_ip":  ctx.ClientIP(),
			"method":     ctx.Request.Method,
			"path":       ctx.Request.URL.Path,
			"user_agent": ctx.Request.UserAgent(),
			"error":      ctx.Errors.ByType(gin.ErrorTypePrivate).String(),
		}).Info("HTTP Request")
	}
}

// MetricsMiddleware 指标中间件
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware 创建指标中间件
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Name 返回中间件名称
func (m *MetricsMiddleware) Name() string {
	return "metrics"
}

// Handle 记录请求数与耗时，路径使用路由模板避免标签膨胀
func (m *MetricsMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(ctx.Request.Method, path, ctx.Writer.Status(), time.Since(start))
	}
}

// AuthMiddleware 认证中间件
type AuthMiddleware struct {
	tokenService *auth.TokenService
	metrics      *metrics.Metrics
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(tokenService *auth.TokenService, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		metrics:      m,
	}
}

// Name 返回中间件名称
func (a *AuthMiddleware) Name() string {
	return "auth"
}

// Handle 校验Bearer令牌
func (a *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			a.metrics.RecordAuth(false)
			abort(ctx, http.StatusUnauthorized, "缺少认证令牌")
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			a.metrics.RecordAuth(false)
			abort(ctx, http.StatusUnauthorized, "无效的认证令牌格式")
			return
		}

		claims, err := a.tokenService.ValidateToken(tokenParts[1])
		if err != nil {
			a.metrics.RecordAuth(false)
			abort(ctx, http.StatusUnauthorized, err.Error())
			return
		}

		a.metrics.RecordAuth(true)
		ctx.Set("subject", claims.Subject)
		ctx.Set("claims", claims)

		ctx.Next()
	}
}

// RateLimitMiddleware 速率限制中间件
type RateLimitMiddleware struct {
	limiter     ratelimit.RateLimiter
	defaultRate int
	metrics     *metrics.Metrics
}

// NewRateLimitMiddleware 创建速率限制中间件
func NewRateLimitMiddleware(limiter ratelimit.RateLimiter, defaultRate int, m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:     limiter,
		defaultRate: defaultRate,
		metrics:     m,
	}
}

// Name 返回中间件名称
func (r *RateLimitMiddleware) Name() string {
	return "rate_limit"
}

// Handle 处理速率限制
func (r *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		subject := ctx.GetString("subject")
		key := ratelimit.GenerateRateLimitKey(ctx.ClientIP(), subject, ctx.Request.URL.Path)

		allowed, err := r.limiter.Allow(ctx.Request.Context(), key, r.defaultRate)
		if err != nil {
			logger.Errorf("速率限制检查失败: %v", err)
			abort(ctx, http.StatusInternalServerError, "内部服务器错误")
			return
		}

		r.metrics.RecordRateLimit(allowed)

		if !allowed {
			ctx.Header("X-RateLimit-Limit", fmt.Sprint(r.defaultRate))
			ctx.Header("X-RateLimit-Remaining", "0")
			ctx.Header("Retry-After", "1")
			abort(ctx, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			return
		}

		ctx.Next()
	}
}

// CacheMiddleware GET响应缓存中间件
type CacheMiddleware struct {
	cache      cache.Cache
	defaultTTL time.Duration
	metrics    *metrics.Metrics
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware(c cache.Cache, defaultTTL time.Duration, m *metrics.Metrics) *CacheMiddleware {
	return &CacheMiddleware{
		cache:      c,
		defaultTTL: defaultTTL,
		metrics:    m,
	}
}

// Name 返回中间件名称
func (c *CacheMiddleware) Name() string {
	return "cache"
}

// ResponseCacheKey 返回路径对应的响应缓存键
func ResponseCacheKey(path, rawQuery string) string {
	key := cache.GenerateCacheKey("response", path, http.MethodGet, nil)
	if rawQuery != "" {
		key += ":" + rawQuery
	}
	return key
}

// InvalidateResponses 清除路径下所有查询参数组合的缓存响应
func InvalidateResponses(ctx context.Context, c cache.Cache, path string) error {
	key := ResponseCacheKey(path, "")
	if err := c.Del(ctx, key); err != nil {
		return err
	}
	return c.DelPrefix(ctx, key+":")
}

// Handle 处理缓存
func (c *CacheMiddleware) Handle() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		cacheKey := ResponseCacheKey(ctx.Request.URL.Path, ctx.Request.URL.RawQuery)

		cachedResponse, err := c.cache.Get(ctx.Request.Context(), cacheKey)
		if err == nil && cachedResponse != "" {
			c.metrics.RecordCacheRequest(true)
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cachedResponse))
			ctx.Abort()
			return
		}

		c.metrics.RecordCacheRequest(false)
		ctx.Header("X-Cache", "MISS")

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: ctx.Writer}
		ctx.Writer = blw

		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK && blw.body.Len() > 0 {
			if err := c.cache.Set(ctx.Request.Context(), cacheKey, blw.body.String(), c.defaultTTL); err != nil {
				logger.Errorf("缓存响应失败: %v", err)
			}
		}
	}
}

// bodyLogWriter 用于捕获响应体的写入器
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
