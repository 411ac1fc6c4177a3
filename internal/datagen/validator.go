package datagen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"demo-tools/internal/logger"
	"demo-tools/internal/models"
)

var (
	ErrReadFile  = errors.New("读取文件失败")
	ErrParseJSON = errors.New("JSON格式验证失败")
)

const (
	// PreviewRecords 用户数据预览条数
	PreviewRecords = 3
	// PreviewKeys 通用JSON预览的顶层键数量
	PreviewKeys = 5
)

// ReportKind 验证结果类型
type ReportKind string

const (
	ReportTyped   ReportKind = "typed"
	ReportGeneric ReportKind = "generic"
)

// Report JSON验证报告
type Report struct {
	Path string
	Kind ReportKind

	// 用户数据
	Total     int
	Preview   []models.UserRecord
	Remaining int

	// 通用JSON
	IsObject bool
	Keys     []string
}

// Validate 读取并验证JSON文件。
// 语法错误返回 ErrParseJSON；结构不是用户数组时退化为通用JSON报告，不视为错误。
func Validate(inputPath string) (*Report, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFile, err)
	}

	return Inspect(inputPath, data)
}

// Inspect 对已读取的内容执行验证，path 仅用于报告
func Inspect(path string, data []byte) (*Report, error) {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseJSON, err)
	}

	report := &Report{Path: path}

	users, err := models.DecodeUserRecords(data)
	if err == nil {
		report.Kind = ReportTyped
		report.Total = len(users)
		report.Preview = users[:min(len(users), PreviewRecords)]
		report.Remaining = len(users) - len(report.Preview)
		return report, nil
	}

	logger.WithField("path", path).Debugf("按通用JSON处理: %v", err)

	report.Kind = ReportGeneric
	if _, ok := value.(map[string]interface{}); ok {
		report.IsObject = true
		keys, err := topLevelKeys(data, PreviewKeys)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseJSON, err)
		}
		report.Keys = keys
	}

	return report, nil
}

// topLevelKeys 按首次出现顺序返回顶层对象的前 limit 个不同键
func topLevelKeys(data []byte, limit int) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("顶层不是对象")
	}

	keys := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for dec.More() && len(keys) < limit {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("无效的对象键: %v", tok)
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}

	return keys, nil
}
