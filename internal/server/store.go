package server

import (
	"sync"
	"time"

	"demo-tools/internal/models"
)

// User 模拟服务保存的用户
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	CreateAt string `json:"create_at"`
}

// UserStore 内存用户存储
type UserStore struct {
	users  []User
	nextID int
	mutex  sync.RWMutex
}

// NewUserStore 创建带初始数据的用户存储
func NewUserStore() *UserStore {
	return &UserStore{
		users: []User{
			{ID: 1, Name: "张三", Email: "zhangsan@example.com", CreateAt: "2024-01-01"},
			{ID: 2, Name: "李四", Email: "lisi@example.com", CreateAt: "2024-01-02"},
			{ID: 3, Name: "王五", Email: "wangwu@example.com", CreateAt: "2024-01-03"},
		},
		nextID: 4,
	}
}

// List 返回所有用户的副本
func (s *UserStore) List() []User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]User, len(s.users))
	copy(result, s.users)
	return result
}

// Get 按ID查找用户
func (s *UserStore) Get(id int) (User, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.ID == id {
			return user, true
		}
	}
	return User{}, false
}

// Create 创建用户，ID自增且删除后不复用
func (s *UserStore) Create(req models.CreateUserRequest) User {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user := User{
		ID:       s.nextID,
		Name:     req.Name,
		Email:    req.Email,
		CreateAt: time.Now().Format("2006-01-02"),
	}
	s.nextID++
	s.users = append(s.users, user)
	return user
}

// Update 更新名称和邮箱，保留ID与创建时间
func (s *UserStore) Update(id int, req models.CreateUserRequest) (User, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Name = req.Name
			s.users[i].Email = req.Email
			return s.users[i], true
		}
	}
	return User{}, false
}

// Delete 删除用户
func (s *UserStore) Delete(id int) (User, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, user := range s.users {
		if user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return user, true
		}
	}
	return User{}, false
}
