package datagen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"demo-tools/internal/logger"
	"demo-tools/internal/models"
)

var (
	ErrInvalidCount = errors.New("生成数量不能为负数")
	ErrSerialize    = errors.New("JSON序列化失败")
	ErrWriteFile    = errors.New("写入文件失败")
)

// namePool 固定的占位姓名池，顺序决定生成结果
var namePool = []string{
	"张三", "李四", "王五", "赵六", "钱七", "孙八", "周九", "吴十",
	"郑十一", "王十二", "冯十三", "陈十四", "褚十五", "卫十六", "蒋十七", "沈十八",
}

// NameFor 返回指定ID对应的用户名，姓名池按取模循环使用
func NameFor(id int) string {
	return namePool[(id-1)%len(namePool)] + strconv.Itoa(id)
}

// EmailFor 返回指定ID对应的邮箱
func EmailFor(id int) string {
	return fmt.Sprintf("user%d@example.com", id)
}

// BuildUsers 在内存中构建 count 条用户记录，ID从1开始递增
func BuildUsers(count int) ([]models.UserRecord, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	users := make([]models.UserRecord, 0, count)
	for id := 1; id <= count; id++ {
		users = append(users, models.UserRecord{
			ID:        id,
			Name:      NameFor(id),
			Email:     EmailFor(id),
			CreatedAt: time.Now().UTC(),
			UUID:      uuid.NewString(),
		})
	}

	return users, nil
}

// Generate 生成测试用户并以格式化JSON数组写入文件，已存在的文件会被覆盖
func Generate(count int, outputPath string) error {
	users, err := BuildUsers(count)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialize, err)
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, err)
	}

	logger.WithField("path", outputPath).Debugf("写入 %d 条用户记录", count)
	return nil
}
