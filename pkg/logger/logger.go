// Package logger 基于logrus的结构化日志
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config 日志配置,字段与config.LogConfig一一对应
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// New 创建logrus日志实例
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别: %s", cfg.Level)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	log.SetOutput(out)
	log.SetReportCaller(cfg.EnableCaller)

	return log, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		return f, nil
	}
}

// Discard 丢弃所有输出,测试用
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type ctxKey struct{}

// WithContext 把带请求字段的Entry放入context
func WithContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry)
}

// FromContext 取出请求级Entry,没有则用base生成
func FromContext(ctx context.Context, base logrus.FieldLogger) logrus.FieldLogger {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return base
}
