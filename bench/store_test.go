package bench

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	mock "github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/benz9527/treebench/lib/tree"
)

func TestStore_SaveAndRecent(t *testing.T) {
	logger, _ := newTestXLogger(t)
	_, err := OpenStore("", logger)
	require.Error(t, err)

	store, err := OpenStore(filepath.Join(t.TempDir(), "runs.db"), logger)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	ctx := context.Background()
	base := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	for i, runID := range []string{"run-a", "run-b", "run-c"} {
		rep := newTestReport()
		rep.RunID = runID
		rep.StartedAt = base.Add(time.Duration(i) * time.Minute)
		rep.Elapsed = 3 * time.Second
		rep.Host = testHostInfo(ctx)
		require.NoError(t, store.Save(ctx, rep))
	}
	// Duplicated run id.
	rep := newTestReport()
	rep.RunID = "run-a"
	require.Error(t, store.Save(ctx, rep))
	require.Error(t, store.Save(ctx, &Report{}))

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-c", runs[0].ID)
	require.Equal(t, "run-b", runs[1].ID)
	require.Equal(t, "Test CPU", runs[0].CPUModel)
	require.Equal(t, int64(3_000_000), runs[0].ElapsedUs)
	require.True(t, base.Add(2*time.Minute).Equal(runs[0].StartedAt))

	phases := runs[0].Phases
	require.Len(t, phases, 7)
	require.Equal(t, tree.BST.String(), phases[0].Tree)
	require.Equal(t, Insert.String(), phases[0].Phase)
	require.Equal(t, int64(120), phases[0].ElapsedUs)
	require.Equal(t, "run-c", phases[0].RunID)
	require.Equal(t, tree.RedBlack.String(), phases[6].Tree)
	require.Equal(t, Delete.String(), phases[6].Phase)

	runs, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	var nilStore *Store
	require.NoError(t, nilStore.Close())
}

func genStoreDBMock(t *testing.T) (*Store, mock.Sqlmock) {
	db, sqlMock, err := mock.New()
	require.NoError(t, err)
	// The sqlite version query is issued by the driver on open.
	sqlMock.ExpectQuery(`select sqlite_version()`).
		WithArgs().
		WillReturnRows(sqlMock.NewRows([]string{"sqlite_version()"}).
			AddRow("3.38.0"))
	logger, _ := newTestXLogger(t)
	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: sqlite.DriverName,
		Conn:       db,
	}, &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return newStore(gdb, logger), sqlMock
}

func TestStore_SaveRollback(t *testing.T) {
	store, sqlMock := genStoreDBMock(t)

	sqlMock.ExpectBegin().WillReturnError(nil)
	sqlMock.ExpectExec("INSERT INTO `bench_runs`").
		WillReturnError(errors.New("disk I/O error"))
	sqlMock.ExpectRollback()

	rep := newTestReport()
	rep.RunID = "run-x"
	err := store.Save(context.Background(), rep)
	require.ErrorContains(t, err, "disk I/O error")
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestStore_RecentError(t *testing.T) {
	store, sqlMock := genStoreDBMock(t)
	sqlMock.ExpectQuery("SELECT \\* FROM `bench_runs`").
		WillReturnError(errors.New("no such table: bench_runs"))

	_, err := store.Recent(context.Background(), 5)
	require.ErrorContains(t, err, "no such table")
	require.NoError(t, sqlMock.ExpectationsWereMet())
}
