package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultUserCount 未配置时生成的用户数量
const DefaultUserCount = 10

// Config 应用配置结构
type Config struct {
	Probe   ProbeConfig   `yaml:"probe"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Data    DataConfig    `yaml:"data"`
}

// ProbeConfig API探测配置
type ProbeConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	RateLimit    float64       `yaml:"rate_limit"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	UserAgent    string        `yaml:"user_agent"`
}

// ServerConfig 模拟服务配置
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	RateLimit    int           `yaml:"rate_limit"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// RedisConfig Redis配置，Addr为空时使用内存缓存
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	Issuer      string        `yaml:"issuer"`
	Subject     string        `yaml:"subject"`
	Required    bool          `yaml:"required"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string      `yaml:"allow_origins"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	Textfile string `yaml:"textfile"`
}

// DataConfig 测试数据生成配置
type DataConfig struct {
	DefaultCount  int    `yaml:"default_count"`
	DefaultOutput string `yaml:"default_output"`
}

// Load 从文件加载配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 生成数量允许显式配置为0，因此在解析前预置默认值而不是事后补零
	config := Config{Data: DataConfig{DefaultCount: DefaultUserCount}}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// Default 返回未提供配置文件时使用的默认配置
func Default() *Config {
	config := Config{Data: DataConfig{DefaultCount: DefaultUserCount}}
	setDefaults(&config)
	return &config
}

// setDefaults 设置默认配置值
func setDefaults(config *Config) {
	if config.Probe.Timeout == 0 {
		config.Probe.Timeout = 5 * time.Second
	}
	if config.Probe.MaxIdleConns == 0 {
		config.Probe.MaxIdleConns = 10
	}
	if config.Probe.UserAgent == "" {
		config.Probe.UserAgent = "demo-tools/1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30 * time.Second
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = 60 * time.Second
	}
	if config.Server.RateLimit == 0 {
		config.Server.RateLimit = 100
	}
	if config.Server.CacheTTL == 0 {
		config.Server.CacheTTL = 30 * time.Second
	}

	if config.Redis.PoolSize == 0 {
		config.Redis.PoolSize = 10
	}
	if config.Redis.MinIdleConns == 0 {
		config.Redis.MinIdleConns = 2
	}

	if config.Auth.TokenExpiry == 0 {
		config.Auth.TokenExpiry = time.Hour
	}
	if config.Auth.Issuer == "" {
		config.Auth.Issuer = "demo-tools"
	}
	if config.Auth.Subject == "" {
		config.Auth.Subject = "smoke-test"
	}

	if len(config.CORS.AllowOrigins) == 0 {
		config.CORS.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if config.CORS.MaxAge == 0 {
		config.CORS.MaxAge = 12 * time.Hour
	}

	// 命令行工具默认只输出警告以上的日志，避免干扰报告内容
	if config.Logging.Level == "" {
		config.Logging.Level = "warn"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = 10
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = 3
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = 7
	}

	if config.Metrics.Path == "" {
		config.Metrics.Path = "/metrics"
	}

	if config.Data.DefaultOutput == "" {
		config.Data.DefaultOutput = "users.json"
	}
}

// validate 验证配置
func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("无效的服务器端口: %d", config.Server.Port)
	}

	if config.Probe.Timeout < 0 {
		return fmt.Errorf("探测超时时间不能为负数: %s", config.Probe.Timeout)
	}

	if config.Probe.RateLimit < 0 {
		return fmt.Errorf("探测速率不能为负数: %v", config.Probe.RateLimit)
	}

	if config.Server.RateLimit < 0 {
		return fmt.Errorf("服务速率限制不能为负数: %d", config.Server.RateLimit)
	}

	if config.Data.DefaultCount < 0 {
		return fmt.Errorf("默认生成数量不能为负数: %d", config.Data.DefaultCount)
	}

	if config.Auth.Required && config.Auth.JWTSecret == "" {
		return fmt.Errorf("启用认证时JWT密钥不能为空")
	}

	return nil
}
