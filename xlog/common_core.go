package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/treebench/lib/infra"
)

var _ xLogCore = (*commonCore)(nil)

type commonCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	core       zapcore.Core
	fields     []zap.Field // Added by With, replayed by WrapCore.
}

func (cc *commonCore) timeEncoder() zapcore.TimeEncoder                            { return cc.tsEnc }
func (cc *commonCore) levelEncoder() zapcore.LevelEncoder                          { return cc.lvlEnc }
func (cc *commonCore) writeSyncer() zapcore.WriteSyncer                            { return cc.ws }
func (cc *commonCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return cc.enc }
func (cc *commonCore) contextFields() []zap.Field                                 { return cc.fields }
func (cc *commonCore) Enabled(lvl zapcore.Level) bool {
	return cc.lvlEnabler.Enabled(lvl)
}

// With stays an xLogCore, so the component loggers derived later still
// rebuild it and keep the fields.
func (cc *commonCore) With(fields []zap.Field) zapcore.Core {
	if len(fields) == 0 {
		return cc
	}
	clone := *cc
	clone.fields = make([]zap.Field, 0, len(cc.fields)+len(fields))
	clone.fields = append(append(clone.fields, cc.fields...), fields...)
	clone.core = cc.core.With(fields)
	return &clone
}

func (cc *commonCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if cc.Enabled(ent.Level) {
		return ce.AddCore(ent, cc)
	}
	return ce
}

func (cc *commonCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return cc.core.Write(ent, fields)
}

func (cc *commonCore) Sync() error {
	return cc.core.Sync()
}

// WrapCore rebuilds the core with the cfg encoder keys. A nil lvlEnabler
// keeps following the parent core level, so the parent level changes are
// visible to the component logger.
func WrapCore(core xLogCore, lvlEnabler zapcore.LevelEnabler, cfg zapcore.EncoderConfig) (xLogCore, error) {
	if core == nil {
		return nil, infra.NewErrorStack("[XLogger] logger core is empty")
	}
	cfg.EncodeLevel = core.levelEncoder()
	cfg.EncodeTime = core.timeEncoder()
	if lvlEnabler == nil {
		lvlEnabler = zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return core.Enabled(l)
		})
	}

	cc := &commonCore{
		ws:         core.writeSyncer(),
		enc:        core.outEncoder(),
		lvlEnabler: lvlEnabler,
		lvlEnc:     core.levelEncoder(),
		tsEnc:      core.timeEncoder(),
		fields:     core.contextFields(),
	}
	cc.core = zapcore.NewCore(cc.enc(cfg), cc.ws, cc.lvlEnabler).With(cc.fields)
	return cc, nil
}

func componentCoreEncoderCfg() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		TimeKey:       "ts",
		CallerKey:     coreKeyIgnored,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   coreKeyIgnored,
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
}

// newComponentXLogger derives a named child logger, used by the third
// party adapters (ants, gorm, fx). The caller and function keys are dropped.
func newComponentXLogger(parent XLogger, name string, lvlEnabler zapcore.LevelEnabler) *xLogger {
	l := &xLogger{}
	if pl, ok := parent.(*xLogger); ok {
		l.ctxFields, l.ctxKeys = pl.ctxFields, pl.ctxKeys
		l.dynamicLevelEnabler = pl.dynamicLevelEnabler
	}
	l.logger.Store(parent.
		zap().
		Named(name).
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			if core == nil {
				panic("[XLogger] core is nil")
			}
			var (
				cc  zapcore.Core
				err error
			)
			switch c := core.(type) {
			case multiCore:
				cc, err = c.wrap(lvlEnabler, componentCoreEncoderCfg())
			case xLogCore:
				cc, err = WrapCore(c, lvlEnabler, componentCoreEncoderCfg())
			default:
				panic("[XLogger] core is not xLogCore")
			}
			if err != nil {
				panic(err)
			}
			return cc
		})),
	)
	return l
}
