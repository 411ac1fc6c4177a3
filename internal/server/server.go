package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"demo-tools/internal/auth"
	"demo-tools/internal/cache"
	"demo-tools/internal/config"
	"demo-tools/internal/logger"
	"demo-tools/internal/metrics"
	"demo-tools/internal/middleware"
	"demo-tools/internal/models"
	"demo-tools/internal/ratelimit"
)

const (
	Version   = "1.0.0"
	usersPath = "/api/users"
)

// Server 模拟后端服务，供 api 子命令探测
type Server struct {
	config       *config.Config
	router       *gin.Engine
	store        *UserStore
	cache        cache.Cache
	tokenService *auth.TokenService
	rateLimiter  ratelimit.RateLimiter
	metrics      *metrics.Metrics
	validate     *validator.Validate
	middlewares  []string
	server       *http.Server
}

// New 创建模拟服务实例
func New(cfg *config.Config) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:       cfg,
		store:        NewUserStore(),
		cache:        cache.New(cfg.Redis),
		tokenService: auth.NewTokenService(cfg.Auth),
		rateLimiter:  ratelimit.NewTokenBucketLimiter(),
		metrics:      metrics.NewMetrics(),
		validate:     validator.New(),
	}

	s.initializeRoutes()

	s.server = &http.Server{
		Addr:           s.Addr(),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return s
}

// Handler 返回HTTP处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// initializeRoutes 初始化路由
func (s *Server) initializeRoutes() {
	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.handlers(
		middleware.NewMetricsMiddleware(s.metrics),
		middleware.NewLoggingMiddleware(),
		middleware.NewCORSMiddleware(s.config.CORS.AllowOrigins, s.config.CORS.MaxAge),
	)...)

	s.router.GET("/health", s.healthHandler)

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	api.GET("/health", s.healthHandler)

	users := api.Group("/users")
	var userMiddlewares []middleware.Middleware
	if s.config.Auth.Required {
		userMiddlewares = append(userMiddlewares, middleware.NewAuthMiddleware(s.tokenService, s.metrics))
	}
	userMiddlewares = append(userMiddlewares, middleware.NewRateLimitMiddleware(s.rateLimiter, s.config.Server.RateLimit, s.metrics))
	users.Use(s.handlers(userMiddlewares...)...)
	{
		listChain := s.handlers(middleware.NewCacheMiddleware(s.cache, s.config.Server.CacheTTL, s.metrics))
		users.GET("", append(listChain, s.listUsersHandler)...)
		users.GET("/:id", s.getUserHandler)
		users.POST("", s.createUserHandler)
		users.PUT("/:id", s.updateUserHandler)
		users.DELETE("/:id", s.deleteUserHandler)
	}
}

// handlers 按顺序展开中间件并记录启用的名称
func (s *Server) handlers(mws ...middleware.Middleware) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mws))
	for _, mw := range mws {
		logger.Debugf("启用中间件: %s", mw.Name())
		s.middlewares = append(s.middlewares, mw.Name())
		chain = append(chain, mw.Handle())
	}
	return chain
}

// Middlewares 返回已启用的中间件名称，按注册顺序
func (s *Server) Middlewares() []string {
	result := make([]string, len(s.middlewares))
	copy(result, s.middlewares)
	return result
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.ApiResponse{
		Code:    status,
		Message: message,
		Data:    data,
	})
}

// healthHandler 健康检查处理器
func (s *Server) healthHandler(c *gin.Context) {
	respond(c, http.StatusOK, "服务运行正常", gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format("2006-01-02 15:04:05"),
		"version":   Version,
	})
}

// listUsersHandler 获取用户列表
func (s *Server) listUsersHandler(c *gin.Context) {
	respond(c, http.StatusOK, "获取用户列表成功", s.store.List())
}

// getUserHandler 根据ID获取用户
func (s *Server) getUserHandler(c *gin.Context) {
	user, ok := s.lookup(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "获取用户信息成功", user)
}

// createUserHandler 创建用户
func (s *Server) createUserHandler(c *gin.Context) {
	req, ok := s.bindUser(c)
	if !ok {
		return
	}

	user := s.store.Create(req)
	s.invalidateUsers(c.Request.Context())

	logger.Infof("创建用户: %d %s", user.ID, user.Name)
	respond(c, http.StatusCreated, "用户创建成功", user)
}

// updateUserHandler 更新用户名称和邮箱
func (s *Server) updateUserHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond(c, http.StatusNotFound, "用户不存在", nil)
		return
	}

	req, ok := s.bindUser(c)
	if !ok {
		return
	}

	user, found := s.store.Update(id, req)
	if !found {
		respond(c, http.StatusNotFound, "用户不存在", nil)
		return
	}

	s.invalidateUsers(c.Request.Context())
	respond(c, http.StatusOK, "用户信息更新成功", user)
}

// deleteUserHandler 删除用户
func (s *Server) deleteUserHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respond(c, http.StatusNotFound, "用户不存在", nil)
		return
	}

	user, found := s.store.Delete(id)
	if !found {
		respond(c, http.StatusNotFound, "用户不存在", nil)
		return
	}

	s.invalidateUsers(c.Request.Context())
	respond(c, http.StatusOK, "用户删除成功", gin.H{
		"deleted_user_id":   user.ID,
		"deleted_user_name": user.Name,
	})
}

func (s *Server) lookup(c *gin.Context) (User, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err == nil {
		if user, found := s.store.Get(id); found {
			return user, true
		}
	}
	respond(c, http.StatusNotFound, "用户不存在", nil)
	return User{}, false
}

// bindUser 解析并校验请求体，失败时已写出400响应
func (s *Server) bindUser(c *gin.Context) (models.CreateUserRequest, bool) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "请求参数错误: "+err.Error(), nil)
		return req, false
	}

	if err := s.validate.Struct(req); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			respond(c, http.StatusBadRequest, "请求参数错误: "+validationMessage(errs), nil)
		} else {
			respond(c, http.StatusBadRequest, "请求参数错误: "+err.Error(), nil)
		}
		return req, false
	}

	return req, true
}

// validationMessage 把字段校验错误合并为一条可读信息
func validationMessage(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("字段 %s 不能为空", e.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("字段 %s 不是有效的邮箱地址", e.Field()))
		default:
			messages = append(messages, fmt.Sprintf("字段 %s 无效", e.Field()))
		}
	}
	return strings.Join(messages, ", ")
}

// invalidateUsers 写操作后清除用户列表缓存
func (s *Server) invalidateUsers(ctx context.Context) {
	if err := middleware.InvalidateResponses(ctx, s.cache, usersPath); err != nil {
		logger.Errorf("清除用户列表缓存失败: %v", err)
	}
}

// Start 启动模拟服务
func (s *Server) Start() error {
	logger.Infof("模拟服务启动在 %s", s.server.Addr)
	logger.Infof("已启用中间件: %s", strings.Join(s.middlewares, ", "))
	return s.server.ListenAndServe()
}

// Stop 停止模拟服务
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("正在停止模拟服务...")

	if err := s.cache.Close(); err != nil {
		logger.Errorf("关闭缓存连接失败: %v", err)
	}

	return s.server.Shutdown(ctx)
}

// Addr 返回监听地址
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
}
