package logger

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// LogrusLogger routes gorm's SQL logging through logrus.
type LogrusLogger struct {
	logger        *logrus.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewLogrusLogger(l *logrus.Logger, slowThreshold time.Duration) *LogrusLogger {
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	return &LogrusLogger{
		logger:        l,
		level:         logger.Info,
		slowThreshold: slowThreshold,
	}
}

func (l *LogrusLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.level = level
	return &newLogger
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.WithContext(ctx).Infof(msg, data...)
	}
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.WithContext(ctx).Warnf(msg, data...)
	}
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.WithContext(ctx).Errorf(msg, data...)
	}
}

func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.logger.WithContext(ctx).WithFields(logrus.Fields{
		"elapsed": elapsed,
		"rows":    rows,
		"sql":     sql,
	})

	switch {
	case err != nil && l.level >= logger.Error && !isRecordNotFound(err):
		entry.Error(err)
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		entry.Warnf("SLOW SQL >= %v", l.slowThreshold)
	case l.level >= logger.Info:
		entry.Info("SQL")
	}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, logger.ErrRecordNotFound)
}
