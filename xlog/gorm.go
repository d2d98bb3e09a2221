package xlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	glogger "gorm.io/gorm/logger"
	gutils "gorm.io/gorm/utils"
)

var _ glogger.Interface = (*GormXLogger)(nil)

// GormXLogger routes the gorm statements of the result store through
// XLogger. The gorm level is independent of the parent logger level.
type GormXLogger struct {
	logger              XLogger
	cfg                 *glogger.Config
	dynamicLevelEnabler zap.AtomicLevel
	gormLevel           int32
}

func (l *GormXLogger) level() glogger.LogLevel {
	return glogger.LogLevel(atomic.LoadInt32(&l.gormLevel))
}

func (l *GormXLogger) LogMode(lvl glogger.LogLevel) glogger.Interface {
	atomic.StoreInt32(&l.gormLevel, int32(lvl))
	l.dynamicLevelEnabler.SetLevel(getLogLevelOrDefaultForGorm(lvl))
	return l
}

func (l *GormXLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Error {
		l.logger.ErrorContext(ctx, nil, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func traceFields(elapsed time.Duration, fc func() (sql string, rowsAffected int64), extra ...zap.Field) []zap.Field {
	sql, rows := fc()
	rowsStr := "-"
	if rows > -1 {
		rowsStr = strconv.FormatInt(rows, 10)
	}
	fields := make([]zap.Field, 0, len(extra)+4)
	fields = append(fields, extra...)
	return append(fields,
		zap.String("fileAndLine", gutils.FileWithLineNum()),
		zap.String("rows", rowsStr),
		zap.Int64("elapsedMs", elapsed.Milliseconds()),
		zap.String("sql", sql),
	)
}

func (l *GormXLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	lvl := l.level()
	if lvl <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && lvl >= glogger.Error && (!errors.Is(err, glogger.ErrRecordNotFound) || !l.cfg.IgnoreRecordNotFoundError):
		l.logger.ErrorContext(ctx, err, "error trace", traceFields(elapsed, fc)...)
	case l.cfg.SlowThreshold != 0 && elapsed > l.cfg.SlowThreshold && lvl >= glogger.Warn:
		l.logger.WarnContext(ctx, "slow sql", traceFields(elapsed, fc,
			zap.Int64("thresholdMs", l.cfg.SlowThreshold.Milliseconds()),
		)...)
	case lvl == glogger.Info:
		l.logger.InfoContext(ctx, "common sql info", traceFields(elapsed, fc)...)
	default:
	}
}

// ParamsFilter hides the bound values from the traced SQL when
// ParameterizedQueries is on.
func (l *GormXLogger) ParamsFilter(ctx context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.ParameterizedQueries {
		return sql, nil
	}
	return sql, params
}

func NewGormXLogger(logger XLogger, opts ...GormXLoggerOption) *GormXLogger {
	gl := &GormXLogger{
		cfg: &glogger.Config{},
	}
	for _, o := range opts {
		o(gl.cfg)
	}
	if gl.cfg.SlowThreshold <= 0 {
		gl.cfg.SlowThreshold = 500 * time.Millisecond
	}
	gl.gormLevel = int32(gl.cfg.LogLevel)
	gl.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefaultForGorm(gl.cfg.LogLevel))
	gl.logger = newComponentXLogger(logger, "Gorm", gl.dynamicLevelEnabler)
	return gl
}

func getLogLevelOrDefaultForGorm(lvl glogger.LogLevel) zapcore.Level {
	switch lvl {
	case glogger.Info:
		return zapcore.InfoLevel
	case glogger.Warn:
		return zapcore.WarnLevel
	case glogger.Error:
		return zapcore.ErrorLevel
	case glogger.Silent:
		fallthrough
	default:
		return zapcore.DebugLevel
	}
}

type GormXLoggerOption func(*glogger.Config)

func WithGormXLoggerSlowThreshold(threshold time.Duration) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.SlowThreshold = threshold
	}
}

func WithGormXLoggerLogLevel(lvl glogger.LogLevel) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.LogLevel = lvl
	}
}

func WithGormXLoggerIgnoreRecord404Err() GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.IgnoreRecordNotFoundError = true
	}
}

func WithGormXLoggerParameterizedQueries() GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.ParameterizedQueries = true
	}
}
