package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demo-tools/internal/config"
	"demo-tools/internal/server"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCmd(out, errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGenerateThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	out, _, err := run(t, "data", "generate-users", "-c", "5", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "生成 5 个测试用户数据")
	assert.Contains(t, out, "生成用户数量: 5")

	out, _, err = run(t, "data", "validate-json", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "共 5 条记录")
	assert.Contains(t, out, "还有 2 条记录")
}

func TestGenerateUsesConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "seed.json")
	cfgPath := writeConfig(t, fmt.Sprintf("data:\n  default_count: 2\n  default_output: %s\n", output))

	out, _, err := run(t, "--config", cfgPath, "data", "generate-users")
	require.NoError(t, err)
	assert.Contains(t, out, "生成用户数量: 2")
	assert.FileExists(t, output)
}

func TestGenerateZeroCountFromConfig(t *testing.T) {
	output := filepath.Join(t.TempDir(), "empty.json")
	cfgPath := writeConfig(t, fmt.Sprintf("data:\n  default_count: 0\n  default_output: %s\n", output))

	out, _, err := run(t, "--config", cfgPath, "data", "generate-users")
	require.NoError(t, err)
	assert.Contains(t, out, "生成用户数量: 0")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestGenerateNegativeCountFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	_, errOut, err := run(t, "data", "generate-users", "--count=-1", "-o", path)
	assert.ErrorIs(t, err, errFailed)
	assert.NotEmpty(t, errOut)
	assert.NoFileExists(t, path)
}

func TestValidateRequiresFile(t *testing.T) {
	_, _, err := run(t, "data", "validate-json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errFailed)
}

func TestValidateMissingFileFails(t *testing.T) {
	_, errOut, err := run(t, "data", "validate-json", "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "读取文件失败")
}

func TestInvalidConfigFile(t *testing.T) {
	cfgPath := writeConfig(t, "server:\n  port: 70000\n")

	_, _, err := run(t, "--config", cfgPath, "monitor", "system")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "配置验证失败")
}

func TestMonitorCommands(t *testing.T) {
	out, _, err := run(t, "monitor", "system")
	require.NoError(t, err)
	assert.Contains(t, out, "系统信息监控")

	out, _, err = run(t, "monitor", "process", "-n", "nginx")
	require.NoError(t, err)
	assert.Contains(t, out, "监控进程: nginx")

	out, _, err = run(t, "monitor", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "系统进程概览")
	assert.Contains(t, out, "demo-backend (PID: 12345)")
}

func newTargetServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(server.New(config.Default()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestAPIHealth(t *testing.T) {
	ts := newTargetServer(t)

	out, _, err := run(t, "api", "health", "-u", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "API服务正常运行")
}

func TestAPIHealthUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, errOut, err := run(t, "api", "health", "--url", url)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, errOut, "请确保后端服务正在运行在 "+url)
}

func TestAPITestUsersWritesMetrics(t *testing.T) {
	ts := newTargetServer(t)
	textfile := filepath.Join(t.TempDir(), "probe.prom")
	cfgPath := writeConfig(t, fmt.Sprintf("metrics:\n  textfile: %s\n", textfile))

	out, _, err := run(t, "--config", cfgPath, "api", "test-users", "-u", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "用户列表API正常")
	assert.Contains(t, out, "创建用户成功")

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "probe_requests_total")
	assert.Contains(t, string(data), `status_code="201"`)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	out, _, err := runContext(t, ctx, "serve", "--host", "127.0.0.1", "--port", "18090")
	require.NoError(t, err)
	assert.Contains(t, out, "模拟服务启动在 http://127.0.0.1:18090")
	assert.Contains(t, out, "服务已停止")
}

func TestServeRejectsBadPort(t *testing.T) {
	_, _, err := run(t, "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无效的服务器端口")
}
