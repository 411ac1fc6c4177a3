// Package monitor 提供固定的系统与进程状态数据，不采集真实指标。
package monitor

import (
	"os"
	"time"
)

// SystemInfo 系统状态
type SystemInfo struct {
	Timestamp   time.Time `json:"timestamp"`
	Hostname    string    `json:"hostname"`
	Uptime      string    `json:"uptime"`
	MemoryUsage string    `json:"memory_usage"`
	CPUUsage    string    `json:"cpu_usage"`
}

// ProcessInfo 进程状态
type ProcessInfo struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	Status string `json:"status"`
	Memory string `json:"memory"`
	CPU    string `json:"cpu"`
}

var processes = []ProcessInfo{
	{Name: "demo-backend", PID: 12345, Status: "运行中", Memory: "128MB", CPU: "2.5%"},
	{Name: "node", PID: 12346, Status: "运行中", Memory: "256MB", CPU: "5.2%"},
	{Name: "demo-tools", PID: 12347, Status: "运行中", Memory: "32MB", CPU: "0.8%"},
}

// System 返回系统状态，仅时间戳和主机名是真实值
func System() SystemInfo {
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname = "unknown"
	}

	return SystemInfo{
		Timestamp:   time.Now().UTC(),
		Hostname:    hostname,
		Uptime:      "模拟运行时间: 2天3小时",
		MemoryUsage: "内存使用: 4.2GB / 16GB (26%)",
		CPUUsage:    "CPU使用率: 15%",
	}
}

// Process 返回指定进程的状态
func Process(name string) ProcessInfo {
	return ProcessInfo{
		Name:   name,
		PID:    12345,
		Status: "运行中",
		Memory: "128MB",
		CPU:    "2.5%",
	}
}

// Processes 返回进程概览
func Processes() []ProcessInfo {
	result := make([]ProcessInfo, len(processes))
	copy(result, processes)
	return result
}
