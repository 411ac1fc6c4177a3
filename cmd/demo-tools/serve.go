package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"demo-tools/internal/logger"
	"demo-tools/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动模拟后端服务，供 api 子命令测试",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if a.cfg.Server.Port < 1 || a.cfg.Server.Port > 65535 {
				return fmt.Errorf("无效的服务器端口: %d", a.cfg.Server.Port)
			}

			return runServer(cmd.Context(), server.New(a.cfg), cmd)
		},
	}
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "监听地址")
	serveCmd.Flags().IntVar(&port, "port", 8080, "监听端口")

	return serveCmd
}

// runServer 启动服务并在上下文取消时优雅关闭
func runServer(ctx context.Context, srv *server.Server, cmd *cobra.Command) error {
	cmd.Printf("🚀 模拟服务启动在 http://%s\n", srv.Addr())

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("服务启动失败: %w", err)
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case err, ok := <-serverErr:
		if ok {
			logger.Errorf("服务器错误: %v", err)
			runErr = err
		}
	case <-ctx.Done():
		logger.Infof("接收到退出信号，开始优雅关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Errorf("关闭服务失败: %v", err)
	}

	cmd.Println("👋 服务已停止")
	return runErr
}
