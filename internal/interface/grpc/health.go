// Package grpc 独立端口上的gRPC健康检查服务
//
// 使用标准的grpc.health.v1协议,k8s探针和grpc_health_probe可以直接调用。
// 后台定期探测存储,失败时把状态切换为NOT_SERVING。
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康检查中使用的服务名
const ServiceName = "bookshop.v1.Bookshop"

// Pinger 存储连通性探测
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 把普通函数适配成Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthServer gRPC健康检查服务
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	log      logrus.FieldLogger
}

// NewHealthServer pinger为nil时始终SERVING
func NewHealthServer(pinger Pinger, interval time.Duration, log logrus.FieldLogger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(1024*1024),
		grpc.MaxSendMsgSize(1024*1024),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{
		server:   srv,
		health:   hs,
		pinger:   pinger,
		interval: interval,
		log:      log,
	}
}

// Serve 阻塞直到Stop或监听出错;ctx取消时停止探测
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	if s.pinger != nil {
		s.Probe(ctx)
		go s.watch(ctx)
	}
	s.log.WithField("addr", lis.Addr().String()).Info("gRPC健康检查服务启动")
	return s.server.Serve(lis)
}

// Probe 探测一次并更新状态
func (s *HealthServer) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("存储探测失败")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Stop 优雅关闭,先把状态置为NOT_SERVING让探针摘流
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
