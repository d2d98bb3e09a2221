package xlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/safeopen"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/treebench/lib/infra"
)

var _ xLogCore = (*fileCore)(nil)

// fileCore appends the logs to a single file, without rotation.
type fileCore struct {
	*commonCore
}

type FileCoreConfig struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`
}

func newFileCore(cfg *FileCoreConfig) xLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		_ logOutWriterType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		if cfg == nil {
			cfg = &FileCoreConfig{
				Filename: filepath.Base(os.Args[0]) + "_xlog.log",
				FilePath: os.TempDir(),
			}
		}
		w := &singleLog{
			filePath: cfg.FilePath,
			filename: cfg.Filename,
		}

		fc := &fileCore{
			commonCore: &commonCore{
				lvlEnabler: lvlEnabler,
				lvlEnc:     lvlEnc,
				tsEnc:      tsEnc,
				ws:         zapcore.Lock(zapcore.AddSync(w)),
				enc:        getEncoderByType(encoder),
			},
		}
		config := zapcore.EncoderConfig{
			MessageKey:    "msg",
			LevelKey:      "lvl",
			EncodeLevel:   fc.lvlEnc,
			TimeKey:       "ts",
			EncodeTime:    fc.tsEnc,
			CallerKey:     "callAt",
			EncodeCaller:  zapcore.ShortCallerEncoder,
			FunctionKey:   "fn",
			NameKey:       "component",
			EncodeName:    zapcore.FullNameEncoder,
			StacktraceKey: coreKeyIgnored,
		}
		fc.core = zapcore.NewCore(fc.enc(config), fc.ws, fc.lvlEnabler)
		return fc
	}
}

// WithXLoggerFileCore tees the logs into filePath/filename as well.
func WithXLoggerFileCore(cfg *FileCoreConfig) XLoggerOption {
	return func(c *loggerCfg) error {
		if cfg != nil && len(cfg.Filename) == 0 {
			return infra.NewErrorStack("[XLogger] empty log filename")
		}
		if len(c.coreConstructors) == 0 {
			// Keep the console output.
			c.coreConstructors = append(c.coreConstructors, newConsoleCore)
		}
		c.coreConstructors = append(c.coreConstructors, newFileCore(cfg))
		return nil
	}
}

var _ io.WriteCloser = (*singleLog)(nil)

// singleLog opens the file lazily on the first write, the file stays
// beneath filePath (no symlink escape).
type singleLog struct {
	lock        sync.Mutex
	filePath    string
	filename    string
	wroteSize   uint64
	currentFile *os.File
}

func (log *singleLog) Write(p []byte) (n int, err error) {
	log.lock.Lock()
	defer log.lock.Unlock()

	if log.currentFile == nil {
		if err = log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	n, err = log.currentFile.Write(p)
	log.wroteSize += uint64(n)
	return n, err
}

func (log *singleLog) Sync() error {
	log.lock.Lock()
	defer log.lock.Unlock()

	if log.currentFile == nil {
		return nil
	}
	return log.currentFile.Sync()
}

func (log *singleLog) Close() error {
	log.lock.Lock()
	defer log.lock.Unlock()

	if log.currentFile == nil {
		return nil
	}
	err := multierr.Combine(log.currentFile.Sync(), log.currentFile.Close())
	log.currentFile = nil
	return err
}

func (log *singleLog) openOrCreate() error {
	if log.filePath == "" {
		log.filePath = os.TempDir()
	}
	if err := os.MkdirAll(log.filePath, 0o755); err != nil {
		return infra.WrapErrorStack(err, "unable to create log dir: "+log.filePath)
	}

	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err, "unable to open log file: "+filepath.Join(log.filePath, log.filename))
	}
	info, err := f.Stat()
	if err != nil {
		return multierr.Append(infra.WrapErrorStack(err, "unable to stat log file"), f.Close())
	}
	log.currentFile = f
	log.wroteSize = uint64(info.Size())
	return nil
}
