package prober

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"demo-tools/internal/auth"
	"demo-tools/internal/config"
	"demo-tools/internal/logger"
	"demo-tools/internal/metrics"
	"demo-tools/internal/models"
	"demo-tools/internal/ratelimit"
)

// 创建用户探测使用的固定请求体
const (
	TestUserName  = "测试用户"
	TestUserEmail = "test@example.com"
)

const (
	endpointHealth = "health"
	endpointUsers  = "users"
)

// StepResult 单个请求的观测结果
type StepResult struct {
	Method   string
	URL      string
	Duration time.Duration

	// Err 非空表示传输层失败，此时其余字段无意义
	Err error

	StatusCode int
	Status     string

	// 仅在2xx时读取响应体
	Body    string
	BodyErr error

	// 用户列表解析结果，仅GET用户列表使用
	Users   []models.UserRecord
	Decoded bool
}

// Reached 是否收到了HTTP响应
func (r StepResult) Reached() bool {
	return r.Err == nil
}

// Success 是否收到2xx响应
func (r StepResult) Success() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// HealthResult 健康检查结果
type HealthResult struct {
	BaseURL string
	StepResult
}

// OK 健康检查是否通过，响应体读取失败不影响结论
func (r HealthResult) OK() bool {
	return r.Success()
}

// UsersResult 用户接口测试结果，两个子步骤相互独立
type UsersResult struct {
	BaseURL string
	List    StepResult
	Create  StepResult
}

// OK 两个子步骤是否都成功
func (r UsersResult) OK() bool {
	return r.List.Success() && r.Create.Success()
}

// Prober API探测器，请求按顺序发出，不重试
type Prober struct {
	client       *http.Client
	pacer        *ratelimit.Pacer
	tokenService *auth.TokenService
	metrics      *metrics.Metrics
	userAgent    string
	subject      string
}

// New 创建探测器，m 可以为nil
func New(cfg *config.Config, m *metrics.Metrics) *Prober {
	return &Prober{
		client: &http.Client{
			Timeout: cfg.Probe.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Probe.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Probe.MaxIdleConns,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		pacer:        ratelimit.NewPacer(cfg.Probe.RateLimit),
		tokenService: auth.NewTokenService(cfg.Auth),
		metrics:      m,
		userAgent:    cfg.Probe.UserAgent,
		subject:      cfg.Auth.Subject,
	}
}

// HealthCheck 对健康检查接口发起GET请求
func (p *Prober) HealthCheck(ctx context.Context, baseURL string) HealthResult {
	step := p.do(ctx, endpointHealth, http.MethodGet, NormalizeHealthURL(baseURL), nil)
	return HealthResult{BaseURL: baseURL, StepResult: step}
}

// TestUsers 依次测试获取用户列表和创建用户，前一步失败不影响后一步
func (p *Prober) TestUsers(ctx context.Context, baseURL string) UsersResult {
	usersURL := NormalizeUsersURL(baseURL)
	result := UsersResult{BaseURL: baseURL}

	result.List = p.do(ctx, endpointUsers, http.MethodGet, usersURL, nil)
	if result.List.Success() && result.List.BodyErr == nil {
		users, err := models.DecodeUserRecords([]byte(result.List.Body))
		if err == nil {
			result.List.Users = users
			result.List.Decoded = true
		} else {
			logger.Debugf("用户列表不是用户记录数组: %v", err)
		}
	}

	payload, err := createUserPayload()
	if err != nil {
		logger.Errorf("构造创建用户请求体失败: %v", err)
		result.Create = StepResult{Method: http.MethodPost, URL: usersURL, Err: err}
		return result
	}
	result.Create = p.do(ctx, endpointUsers, http.MethodPost, usersURL, payload)

	return result
}

// createUserPayload 固定的测试用户请求体
func createUserPayload() ([]byte, error) {
	payload, err := json.Marshal(models.CreateUserRequest{
		Name:  TestUserName,
		Email: TestUserEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化测试用户失败: %w", err)
	}
	return payload, nil
}

// do 发出单个请求并记录观测结果
func (p *Prober) do(ctx context.Context, endpoint, method, url string, body []byte) StepResult {
	result := StepResult{Method: method, URL: url}

	if err := p.pacer.Wait(ctx); err != nil {
		result.Err = err
		return result
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		logger.Errorf("创建探测请求失败 %s: %v", url, err)
		result.Err = err
		return result
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.tokenService.Enabled() {
		token, err := p.tokenService.GenerateToken(p.subject, p.userAgent)
		if err != nil {
			logger.Warnf("生成访问令牌失败: %v", err)
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	result.Duration = time.Since(start)

	if err != nil {
		logger.WithField("url", url).Debugf("探测请求失败: %v", err)
		if p.metrics != nil {
			p.metrics.RecordProbeError(endpoint, method, result.Duration)
		}
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Status = resp.Status
	if p.metrics != nil {
		p.metrics.RecordProbe(endpoint, method, resp.StatusCode, result.Duration)
	}

	logger.WithField("url", url).Debugf("%s 返回状态码 %d (耗时: %v)", method, resp.StatusCode, result.Duration)

	if !result.Success() {
		io.Copy(io.Discard, resp.Body)
		return result
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		result.BodyErr = err
		return result
	}
	result.Body = string(data)

	return result
}
