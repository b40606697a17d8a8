package store

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm/logger"
)

// slowQuery is the duration above which queries are logged as warnings.
const slowQuery = 200 * time.Millisecond

type gormLogger struct {
	logger hclog.Logger
	level  logger.LogLevel
}

// NewGormLogger routes gorm logs to log.
func NewGormLogger(log hclog.Logger) logger.Interface {
	return &gormLogger{logger: log, level: logger.Warn}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{logger: g.logger, level: level}
}

func (g *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Info {
		g.logger.Info(msg, data...)
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Warn {
		g.logger.Warn(msg, data...)
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.level >= logger.Error {
		g.logger.Error(msg, data...)
	}
}

func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && g.level >= logger.Error:
		g.logger.Error("database query failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > slowQuery && g.level >= logger.Warn:
		g.logger.Warn("slow database query", "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.level >= logger.Info:
		g.logger.Debug("database query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
