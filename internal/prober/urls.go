package prober

import "strings"

const (
	healthSuffix = "/health"
	healthPath   = "/api/health"
	usersPath    = "/api/users"
)

// NormalizeHealthURL 已以 /health 结尾的地址原样使用，否则追加 /api/health
func NormalizeHealthURL(base string) string {
	if strings.HasSuffix(base, healthSuffix) {
		return base
	}
	return base + healthPath
}

// NormalizeUsersURL 已包含 /api/users 的地址原样使用，否则追加 /api/users
func NormalizeUsersURL(base string) string {
	if strings.Contains(base, usersPath) {
		return base
	}
	return base + usersPath
}
