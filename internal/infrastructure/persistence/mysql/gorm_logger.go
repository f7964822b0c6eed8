package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/pkg/logger"
)

// slowQueryThreshold 超过该耗时的SQL按Warn记录
const slowQueryThreshold = 200 * time.Millisecond

// GormLogger 把GORM日志输出到logrus,带上请求上下文里的request_id
type GormLogger struct {
	log   logrus.FieldLogger
	level gormlogger.LogLevel
}

// NewGormLogger 创建GORM日志适配器
func NewGormLogger(log logrus.FieldLogger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{log: log, level: level}
}

// ParseLogLevel silent | error | warn | info,未知值按warn处理
func ParseLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{log: l.log, level: level}
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.FromContext(ctx, l.log).Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.FromContext(ctx, l.log).Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.FromContext(ctx, l.log).Errorf(msg, args...)
	}
}

// Trace 每条SQL执行后回调
// 记录不存在不算错误,由仓储转换成领域错误
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := logger.FromContext(ctx, l.log).WithFields(logrus.Fields{
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
		"rows":       rows,
		"sql":        sql,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithError(err).Error("SQL执行失败")
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		entry.Warn("慢查询")
	case l.level >= gormlogger.Info:
		entry.Debug("SQL")
	}
}
