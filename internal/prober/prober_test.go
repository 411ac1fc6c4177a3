package prober

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demo-tools/internal/auth"
	"demo-tools/internal/config"
	"demo-tools/internal/datagen"
	"demo-tools/internal/metrics"
)

func TestNormalizeHealthURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/health", NormalizeHealthURL("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/health", NormalizeHealthURL("http://localhost:8080/health"))
	assert.Equal(t, "http://h/custom/health", NormalizeHealthURL("http://h/custom/health"))
	// 不做斜杠处理
	assert.Equal(t, "http://h//api/health", NormalizeHealthURL("http://h/"))

	for _, base := range []string{"http://localhost:8080", "http://h/health", "x"} {
		once := NormalizeHealthURL(base)
		assert.Equal(t, once, NormalizeHealthURL(once))
	}
}

func TestNormalizeUsersURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/users", NormalizeUsersURL("http://localhost:8080"))
	assert.Equal(t, "http://h/api/users", NormalizeUsersURL("http://h/api/users"))
	assert.Equal(t, "http://h/api/users?page=2", NormalizeUsersURL("http://h/api/users?page=2"))
	assert.Equal(t, "http://h/v2/api/users/1", NormalizeUsersURL("http://h/v2/api/users/1"))

	for _, base := range []string{"http://localhost:8080", "http://h/api/users", "x"} {
		once := NormalizeUsersURL(base)
		assert.Equal(t, once, NormalizeUsersURL(once))
	}
}

func newTestProber(t *testing.T, mutate func(cfg *config.Config)) (*Prober, *metrics.Metrics) {
	t.Helper()
	cfg := config.Default()
	cfg.Probe.Timeout = 2 * time.Second
	if mutate != nil {
		mutate(cfg)
	}
	m := metrics.NewMetrics()
	return New(cfg, m), m
}

// unreachableURL 返回一个已关闭服务的地址
func unreachableURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestHealthCheckOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "demo-tools/1.0.0", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	p, m := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), srv.URL)

	assert.True(t, result.OK())
	assert.NoError(t, result.Err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, `{"status":"healthy"}`, result.Body)
	assert.Equal(t, srv.URL+"/api/health", result.URL)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRequestsTotal.WithLabelValues("health", "GET", "200")))
}

func TestHealthCheckUsesExplicitHealthURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p, _ := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), srv.URL+"/health")
	assert.True(t, result.OK())
	assert.Equal(t, "ok", result.Body)
}

func TestHealthCheckNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"down"}`))
	}))
	defer srv.Close()

	p, _ := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), srv.URL)

	assert.False(t, result.OK())
	assert.True(t, result.Reached())
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
	assert.Empty(t, result.Body)
}

func TestHealthCheckBodyReadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("short"))
	}))
	defer srv.Close()

	p, _ := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), srv.URL)

	assert.True(t, result.OK())
	assert.Error(t, result.BodyErr)
}

func TestHealthCheckUnreachable(t *testing.T) {
	p, m := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), unreachableURL(t))

	assert.False(t, result.OK())
	assert.False(t, result.Reached())
	assert.Error(t, result.Err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRequestsTotal.WithLabelValues("health", "GET", metrics.StatusTransportError)))
}

func TestHealthCheckInvalidURL(t *testing.T) {
	p, _ := newTestProber(t, nil)
	result := p.HealthCheck(context.Background(), "://bad")

	assert.False(t, result.OK())
	assert.Error(t, result.Err)
}

func TestHealthCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p, _ := newTestProber(t, func(cfg *config.Config) {
		cfg.Probe.Timeout = 50 * time.Millisecond
	})

	start := time.Now()
	result := p.HealthCheck(context.Background(), srv.URL)
	assert.Error(t, result.Err)
	assert.Less(t, time.Since(start), time.Second)
}

// usersServer 记录收到的请求，GET和POST的响应可分别指定
type usersServer struct {
	mutex       sync.Mutex
	methods     []string
	postBody    []byte
	listStatus  int
	listBody    string
	createCode  int
	createBody  string
	contentType string
}

func (s *usersServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.methods = append(s.methods, r.Method)
	switch r.Method {
	case http.MethodGet:
		w.WriteHeader(s.listStatus)
		w.Write([]byte(s.listBody))
	case http.MethodPost:
		s.postBody, _ = io.ReadAll(r.Body)
		s.contentType = r.Header.Get("Content-Type")
		w.WriteHeader(s.createCode)
		w.Write([]byte(s.createBody))
	}
}

func TestTestUsersTypedList(t *testing.T) {
	users, err := datagen.BuildUsers(5)
	require.NoError(t, err)
	list, err := json.Marshal(users)
	require.NoError(t, err)

	backend := &usersServer{
		listStatus: http.StatusOK,
		listBody:   string(list),
		createCode: http.StatusCreated,
		createBody: `{"code":201}`,
	}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	p, _ := newTestProber(t, nil)
	result := p.TestUsers(context.Background(), srv.URL)

	assert.True(t, result.OK())
	assert.Equal(t, srv.URL+"/api/users", result.List.URL)
	assert.True(t, result.List.Decoded)
	require.Len(t, result.List.Users, 5)
	assert.Equal(t, "张三1", result.List.Users[0].Name)

	assert.Equal(t, http.StatusCreated, result.Create.StatusCode)
	assert.Equal(t, `{"code":201}`, result.Create.Body)
	assert.False(t, result.Create.Decoded)

	assert.Equal(t, []string{"GET", "POST"}, backend.methods)
	assert.Equal(t, "application/json", backend.contentType)
	assert.JSONEq(t, `{"name":"测试用户","email":"test@example.com"}`, string(backend.postBody))
}

func TestCreateUserPayload(t *testing.T) {
	payload, err := createUserPayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"测试用户","email":"test@example.com"}`, string(payload))
}

func TestTestUsersRawFallback(t *testing.T) {
	envelope := `{"code":200,"message":"获取用户列表成功","data":[{"id":1,"name":"张三"}]}`
	backend := &usersServer{
		listStatus: http.StatusOK,
		listBody:   envelope,
		createCode: http.StatusCreated,
	}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	p, _ := newTestProber(t, nil)
	result := p.TestUsers(context.Background(), srv.URL+"/api/users")

	assert.True(t, result.List.Success())
	assert.False(t, result.List.Decoded)
	assert.Empty(t, result.List.Users)
	assert.Equal(t, envelope, result.List.Body)
	assert.Equal(t, srv.URL+"/api/users", result.Create.URL)
}

func TestTestUsersPostAttemptedAfterStatusFailure(t *testing.T) {
	backend := &usersServer{
		listStatus: http.StatusInternalServerError,
		listBody:   "boom",
		createCode: http.StatusBadRequest,
	}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	p, m := newTestProber(t, nil)
	result := p.TestUsers(context.Background(), srv.URL)

	assert.False(t, result.OK())
	assert.Equal(t, http.StatusInternalServerError, result.List.StatusCode)
	assert.Empty(t, result.List.Body)
	assert.Equal(t, http.StatusBadRequest, result.Create.StatusCode)
	assert.Equal(t, []string{"GET", "POST"}, backend.methods)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRequestsTotal.WithLabelValues("users", "POST", "400")))
}

func TestTestUsersPostAttemptedAfterTransportFailure(t *testing.T) {
	p, m := newTestProber(t, nil)
	result := p.TestUsers(context.Background(), unreachableURL(t))

	assert.False(t, result.OK())
	assert.Error(t, result.List.Err)
	assert.Error(t, result.Create.Err)
	assert.Equal(t, http.MethodPost, result.Create.Method)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRequestsTotal.WithLabelValues("users", "GET", metrics.StatusTransportError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeRequestsTotal.WithLabelValues("users", "POST", metrics.StatusTransportError)))
}

func TestBearerTokenAttached(t *testing.T) {
	authCfg := config.AuthConfig{JWTSecret: "probe-secret", TokenExpiry: time.Minute, Issuer: "demo-tools", Subject: "ci"}
	verifier := auth.NewTokenService(authCfg)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(header, "Bearer "))
		claims, err := verifier.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "ci", claims.Subject)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p, _ := newTestProber(t, func(cfg *config.Config) {
		cfg.Auth = authCfg
	})
	result := p.HealthCheck(context.Background(), srv.URL)
	assert.True(t, result.OK())
}
