// Package report 把各个操作的结果转换为面向用户的输出。
// 正常信息写入 Out，失败信息写入 Err。
package report

import (
	"fmt"
	"io"

	"demo-tools/internal/datagen"
	"demo-tools/internal/models"
	"demo-tools/internal/monitor"
	"demo-tools/internal/prober"
)

// Printer 报告输出器
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New 创建报告输出器
func New(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

func (p *Printer) println(format string, args ...interface{}) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) eprintln(format string, args ...interface{}) {
	fmt.Fprintf(p.Err, format+"\n", args...)
}

// GenerateStarted 开始生成用户数据
func (p *Printer) GenerateStarted(count int) {
	p.println("🔧 生成 %d 个测试用户数据...", count)
}

// Generated 生成结果，err 非空时输出失败原因
func (p *Printer) Generated(path string, count int, err error) {
	if err != nil {
		p.eprintln("❌ %v", err)
		return
	}
	p.println("✅ 成功生成用户数据文件: %s", path)
	p.println("📊 生成用户数量: %d", count)
}

// ValidateStarted 开始验证JSON文件
func (p *Printer) ValidateStarted(path string) {
	p.println("🔍 验证JSON文件: %s", path)
}

// Validation 验证结果，err 非空时输出失败原因
func (p *Printer) Validation(r *datagen.Report, err error) {
	if err != nil {
		p.eprintln("❌ %v", err)
		return
	}

	p.println("✅ JSON格式验证通过")

	switch r.Kind {
	case datagen.ReportTyped:
		p.println("📊 检测到用户数据，共 %d 条记录", r.Total)
		p.users(r.Preview)
		if r.Remaining > 0 {
			p.println("  ... 还有 %d 条记录", r.Remaining)
		}
	default:
		p.println("📄 通用JSON数据，结构如下:")
		if !r.IsObject {
			p.println("  (非对象结构，没有可列出的键)")
			return
		}
		for _, key := range r.Keys {
			p.println("  - %s", key)
		}
	}
}

func (p *Printer) users(users []models.UserRecord) {
	for i, user := range users {
		p.println("  %d. %s (%s)", i+1, user.Name, user.Email)
	}
}

// Health 健康检查结果
func (p *Printer) Health(r prober.HealthResult) {
	p.println("🏥 测试API健康状态: %s", r.BaseURL)

	if !r.Reached() {
		p.eprintln("❌ 连接API失败: %v", r.Err)
		p.eprintln("💡 请确保后端服务正在运行在 %s", r.BaseURL)
		return
	}

	p.println("📡 HTTP状态码: %s", r.Status)
	if !r.Success() {
		p.println("❌ API服务异常，状态码: %s", r.Status)
		return
	}
	if r.BodyErr != nil {
		p.println("⚠️  无法读取响应内容: %v", r.BodyErr)
		return
	}
	p.println("✅ API服务正常运行")
	p.println("📄 响应内容: %s", r.Body)
}

// Users 用户接口测试结果
func (p *Printer) Users(r prober.UsersResult) {
	p.println("👥 测试用户API接口: %s", r.BaseURL)

	p.println("🔍 测试获取用户列表...")
	list := r.List
	switch {
	case !list.Reached():
		p.eprintln("❌ 连接用户API失败: %v", list.Err)
		p.eprintln("💡 请确保后端服务正在运行在 %s", r.BaseURL)
	case !list.Success():
		p.println("📡 HTTP状态码: %s", list.Status)
		p.println("❌ 用户API异常，状态码: %s", list.Status)
	case list.BodyErr != nil:
		p.println("📡 HTTP状态码: %s", list.Status)
		p.println("⚠️  无法读取响应内容: %v", list.BodyErr)
	default:
		p.println("📡 HTTP状态码: %s", list.Status)
		p.println("✅ 用户列表API正常")
		if list.Decoded {
			p.println("📊 用户数量: %d", len(list.Users))
			p.users(list.Users[:min(len(list.Users), datagen.PreviewRecords)])
		} else {
			p.println("📄 响应内容: %s", list.Body)
		}
	}

	p.println("")
	p.println("📝 测试创建用户...")
	create := r.Create
	switch {
	case !create.Reached():
		p.eprintln("❌ 创建用户请求失败: %v", create.Err)
	case !create.Success():
		p.println("📡 HTTP状态码: %s", create.Status)
		p.println("❌ 创建用户失败，状态码: %s", create.Status)
	case create.BodyErr != nil:
		p.println("📡 HTTP状态码: %s", create.Status)
		p.println("⚠️  无法读取响应内容: %v", create.BodyErr)
	default:
		p.println("📡 HTTP状态码: %s", create.Status)
		p.println("✅ 创建用户成功")
		p.println("📄 响应内容: %s", create.Body)
	}
}

// System 系统信息
func (p *Printer) System(info monitor.SystemInfo) {
	p.println("🖥️  系统信息监控")
	p.println("📊 系统状态:")
	p.println("  🕐 时间戳: %s", info.Timestamp.Format("2006-01-02 15:04:05 UTC"))
	p.println("  🏠 主机名: %s", info.Hostname)
	p.println("  ⏱️  运行时间: %s", info.Uptime)
	p.println("  💾 %s", info.MemoryUsage)
	p.println("  🔥 %s", info.CPUUsage)
}

// Process 单个进程信息
func (p *Printer) Process(info monitor.ProcessInfo) {
	p.println("🔍 监控进程: %s", info.Name)
	p.println("📊 进程状态: %s", info.Status)
	p.println("  💾 内存使用: %s", info.Memory)
	p.println("  🔥 CPU使用: %s", info.CPU)
	p.println("  🆔 进程ID: %d", info.PID)
}

// Processes 进程概览
func (p *Printer) Processes(list []monitor.ProcessInfo) {
	p.println("📋 系统进程概览:")
	for _, info := range list {
		p.println("  📦 %s (PID: %d) - 内存: %s, CPU: %s", info.Name, info.PID, info.Memory, info.CPU)
	}
}
