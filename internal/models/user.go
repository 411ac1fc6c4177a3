package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrSchemaMismatch JSON语法正确但不符合用户记录结构
var ErrSchemaMismatch = errors.New("数据结构与用户记录不匹配")

// UserRecord 测试用户记录
type UserRecord struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UUID      string    `json:"uuid"`
}

// CreateUserRequest 创建/更新用户的请求体
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ApiResponse 统一API响应结构
type ApiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

var userRecordFields = []string{"id", "name", "email", "created_at", "uuid"}

// DecodeUserRecords 严格解析用户记录数组。
// 每个元素必须是包含全部字段且类型正确的对象，允许多余字段；
// 不满足时返回包装了 ErrSchemaMismatch 的错误。
func DecodeUserRecords(data []byte) ([]UserRecord, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	if elements == nil {
		return nil, fmt.Errorf("%w: 顶层不是数组", ErrSchemaMismatch)
	}

	records := make([]UserRecord, 0, len(elements))
	for i, element := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(element, &fields); err != nil {
			return nil, fmt.Errorf("%w: 第%d条记录不是对象", ErrSchemaMismatch, i+1)
		}

		var record UserRecord
		targets := []interface{}{&record.ID, &record.Name, &record.Email, &record.CreatedAt, &record.UUID}

		// 只按精确键名取值，大小写不同的多余字段不会覆盖已知字段
		for j, name := range userRecordFields {
			value, ok := fields[name]
			if !ok || string(value) == "null" {
				return nil, fmt.Errorf("%w: 第%d条记录缺少字段 %s", ErrSchemaMismatch, i+1, name)
			}
			if err := json.Unmarshal(value, targets[j]); err != nil {
				return nil, fmt.Errorf("%w: 第%d条记录字段 %s: %w", ErrSchemaMismatch, i+1, name, err)
			}
		}
		if record.ID < 0 {
			return nil, fmt.Errorf("%w: 第%d条记录ID为负数", ErrSchemaMismatch, i+1)
		}

		records = append(records, record)
	}

	return records, nil
}
