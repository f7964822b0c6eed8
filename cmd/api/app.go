package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/messaging"
	grpcserver "github.com/xiebiao/bookshop/internal/interface/grpc"
	"github.com/xiebiao/bookshop/pkg/mq"
)

const shutdownTimeout = 10 * time.Second

// App 一个进程内运行的全部服务: HTTP API、gRPC健康检查、订单事件审计消费者
type App struct {
	cfg      *config.Config
	engine   *gin.Engine
	health   *grpcserver.HealthServer // 未启用时为nil
	consumer *mq.Consumer             // 未启用时为nil
	log      *logrus.Logger
}

func newApp(
	cfg *config.Config,
	engine *gin.Engine,
	health *grpcserver.HealthServer,
	consumer *mq.Consumer,
	log *logrus.Logger,
) *App {
	return &App{cfg: cfg, engine: engine, health: health, consumer: consumer, log: log}
}

// Run 阻塞直到ctx取消或任一服务异常退出,然后优雅关闭其余服务
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		a.log.WithField("addr", srv.Addr).Info("HTTP服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.health != nil {
		lis, err := net.Listen("tcp", a.cfg.GRPC.Addr())
		if err != nil {
			return err
		}
		g.Go(func() error { return a.health.Serve(ctx, lis) })
		g.Go(func() error {
			<-ctx.Done()
			a.health.Stop()
			return nil
		})
	}

	if a.consumer != nil {
		audit := messaging.NewOrderEventLogger(a.log.WithField("component", "order-audit"))
		g.Go(func() error {
			if err := audit.Run(ctx, a.consumer); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
