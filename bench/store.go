package bench

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/benz9527/treebench/lib/infra"
	"github.com/benz9527/treebench/xlog"
)

// RunRecord is a persisted benchmark run.
type RunRecord struct {
	ID          string    `gorm:"primaryKey;size:32"`
	StartedAt   time.Time `gorm:"index"`
	ElapsedUs   int64
	Hostname    string `gorm:"size:255"`
	Platform    string `gorm:"size:255"`
	CPUModel    string `gorm:"size:255"`
	Cores       int
	MemTotal    uint64
	GoVersion   string `gorm:"size:32"`
	Env         string `gorm:"size:16"`
	ContainerID string `gorm:"size:64"`
	Phases      []PhaseRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (RunRecord) TableName() string { return "bench_runs" }

type PhaseRecord struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RunID       string `gorm:"index;size:32"`
	Set         string `gorm:"size:64"`
	File        string `gorm:"size:255"`
	Description string `gorm:"size:64"`
	Tree        string `gorm:"size:16"`
	Phase       string `gorm:"size:16"`
	Ops         int
	ElapsedUs   int64
}

func (PhaseRecord) TableName() string { return "bench_phases" }

func newRunRecord(rep *Report) *RunRecord {
	results := rep.Results()
	rec := &RunRecord{
		ID:          rep.RunID,
		StartedAt:   rep.StartedAt,
		ElapsedUs:   rep.Elapsed.Microseconds(),
		Hostname:    rep.Host.Hostname,
		Platform:    rep.Host.Platform,
		CPUModel:    rep.Host.CPUModel,
		Cores:       rep.Host.Cores,
		MemTotal:    rep.Host.MemTotal,
		GoVersion:   rep.Host.GoVersion,
		Env:         string(rep.Host.Env),
		ContainerID: rep.Host.ContainerID,
		Phases:      make([]PhaseRecord, 0, len(results)),
	}
	for _, res := range results {
		rec.Phases = append(rec.Phases, PhaseRecord{
			RunID:       rep.RunID,
			Set:         res.Set,
			File:        res.File,
			Description: res.Description,
			Tree:        res.Kind.String(),
			Phase:       res.Phase.String(),
			Ops:         res.Ops,
			ElapsedUs:   res.Microseconds(),
		})
	}
	return rec
}

// Store records the runs through gorm.
type Store struct {
	db     *gorm.DB
	logger xlog.XLogger
}

func newStore(db *gorm.DB, logger xlog.XLogger) *Store {
	return &Store{db: db, logger: logger}
}

func newGormLogger(logger xlog.XLogger) glogger.Interface {
	return xlog.NewGormXLogger(logger,
		xlog.WithGormXLoggerIgnoreRecord404Err(),
		xlog.WithGormXLoggerLogLevel(glogger.Warn),
		xlog.WithGormXLoggerSlowThreshold(200*time.Millisecond),
		xlog.WithGormXLoggerParameterizedQueries(),
	)
}

// OpenStore opens the sqlite dsn and migrates the tables. The pure Go
// sqlite driver serializes the writes, so one connection is kept.
func OpenStore(dsn string, logger xlog.XLogger) (*Store, error) {
	if dsn == "" {
		return nil, infra.NewErrorStack("[bench] empty store dsn")
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[bench] open store "+dsn)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[bench] store connection pool")
	}
	sqlDB.SetMaxOpenConns(1)
	if err = db.AutoMigrate(&RunRecord{}, &PhaseRecord{}); err != nil {
		return nil, multierr.Append(infra.WrapErrorStack(err, "[bench] migrate store"), sqlDB.Close())
	}
	return newStore(db, logger), nil
}

// Save writes the run and its phases in one transaction.
func (s *Store) Save(ctx context.Context, rep *Report) error {
	if rep == nil || rep.RunID == "" {
		return infra.NewErrorStack("[bench] save a report without run id")
	}
	rec := newRunRecord(rep)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Phases").Create(rec).Error; err != nil {
			return err
		}
		if len(rec.Phases) == 0 {
			return nil
		}
		return tx.CreateInBatches(rec.Phases, 100).Error
	})
	if err != nil {
		return infra.WrapErrorStack(err, "[bench] save run "+rep.RunID)
	}
	return nil
}

// Recent returns the latest runs first, with their phases.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	runs := make([]RunRecord, 0, limit)
	err := s.db.WithContext(ctx).
		Preload("Phases", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		}).
		Order("started_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[bench] recent runs")
	}
	return runs, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return infra.WrapErrorStack(err, "[bench] store connection pool")
	}
	return sqlDB.Close()
}
