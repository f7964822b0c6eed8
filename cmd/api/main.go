// Bookshop API服务
//
// @title           Bookshop API
// @version         1.0
// @description     在线书店: 用户、分类、图书、订单管理
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
}

// run 启动流程:
// 1. 加载配置、初始化日志和链路追踪
// 2. Wire组装依赖
// 3. 运行到收到SIGINT/SIGTERM,然后优雅关闭
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.WithError(err).Warn("关闭链路追踪失败")
		}
	}()

	app, cleanup, err := InitializeApp(cfg, log)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer cleanup()

	log.WithFields(logrus.Fields{
		"http":   cfg.Server.Addr(),
		"driver": cfg.Database.Driver,
		"redis":  cfg.Redis.Enabled,
		"mq":     cfg.MQ.Enabled,
	}).Info("服务启动")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("服务已安全关闭")
	return nil
}
