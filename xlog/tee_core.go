package xlog

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ zapcore.Core = (multiCore)(nil)

// multiCore tees the entries to every sub-core and aggregates their errors.
// It keeps the sub-cores as xLogCore, so a component logger rebuilds each
// of them with its own encoder config.
type multiCore []xLogCore

func newMultiCore(cores ...xLogCore) zapcore.Core {
	return multiCore(cores)
}

func (mc multiCore) With(fields []zap.Field) zapcore.Core {
	clone := make(multiCore, 0, len(mc))
	for _, core := range mc {
		c, ok := core.With(fields).(xLogCore)
		if !ok {
			panic( /* debug assertion */ "[XLogger] sub-core With is not xLogCore")
		}
		clone = append(clone, c)
	}
	return clone
}

// Level is the lowest level of the sub-cores.
func (mc multiCore) Level() zapcore.Level {
	minLvl := zapcore.InvalidLevel
	for _, core := range mc {
		if lvl := zapcore.LevelOf(core); minLvl == zapcore.InvalidLevel || lvl < minLvl {
			minLvl = lvl
		}
	}
	return minLvl
}

func (mc multiCore) Enabled(lvl zapcore.Level) bool {
	for _, core := range mc {
		if core.Enabled(lvl) {
			return true
		}
	}
	return false
}

func (mc multiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for _, core := range mc {
		ce = core.Check(ent, ce)
	}
	return ce
}

func (mc multiCore) Write(ent zapcore.Entry, fields []zap.Field) (err error) {
	for _, core := range mc {
		err = multierr.Append(err, core.Write(ent, fields))
	}
	return err
}

func (mc multiCore) Sync() (err error) {
	for _, core := range mc {
		err = multierr.Append(err, core.Sync())
	}
	return err
}

// wrap rebuilds every sub-core for a component logger.
func (mc multiCore) wrap(lvlEnabler zapcore.LevelEnabler, cfg zapcore.EncoderConfig) (multiCore, error) {
	wrapped := make(multiCore, 0, len(mc))
	for _, core := range mc {
		c, err := WrapCore(core, lvlEnabler, cfg)
		if err != nil {
			return nil, err
		}
		wrapped = append(wrapped, c)
	}
	return wrapped, nil
}
