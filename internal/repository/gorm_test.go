package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/model"
)

func setupTestRepo(t *testing.T) *GormRunRepository {
	db, err := Open(sqlite.Open(":memory:"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	repo := NewGormRunRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func sampleRun(id, binary string) *model.Run {
	return &model.Run{
		RunID:        id,
		Binary:       binary,
		SourcePath:   "/builds/" + binary,
		Digest:       "ab12",
		SymbolCount:  9,
		SymbolBytes:  2608,
		SectionBytes: 368392,
		Skipped:      1,
		ReportPath:   "index.html",
		Phases:       map[string]time.Duration{"inspect": 1500 * time.Millisecond},
	}
}

func TestGormRunRepository_SaveAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	run := sampleRun("run-1", "libfilament-jni.so")
	require.NoError(t, repo.Save(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "libfilament-jni.so", got.Binary)
	assert.Equal(t, int64(2608), got.SymbolBytes)
	assert.Equal(t, int64(368392), got.SectionBytes)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 1500*time.Millisecond, got.Phases["inspect"])
}

func TestGormRunRepository_GetByRunID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	run, err := repo.GetByRunID(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormRunRepository_SaveValidation(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Save(context.Background(), &model.Run{Binary: "x"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
}

func TestGormRunRepository_DuplicateRunID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleRun("dup", "a.so")))
	err := repo.Save(ctx, sampleRun("dup", "a.so"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
}

func TestGormRunRepository_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, bin := range []string{"a.so", "b.so", "a.so"} {
		run := sampleRun(string(rune('x'+i)), bin)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, run))
	}

	t.Run("All", func(t *testing.T) {
		runs, err := repo.List(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, []string{"z", "y", "x"}, []string{runs[0].RunID, runs[1].RunID, runs[2].RunID})
	})

	t.Run("ByBinary", func(t *testing.T) {
		runs, err := repo.List(ctx, "a.so", 0)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "z", runs[0].RunID)
	})

	t.Run("Limit", func(t *testing.T) {
		runs, err := repo.List(ctx, "", 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "z", runs[0].RunID)
	})
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestGormRunRepository_MySQL_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `fardiff_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), sampleRun("run-m", "libm.so")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRunRepository_MySQL_SaveError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `fardiff_runs`").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), sampleRun("run-m", "libm.so"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGormRunRepository_MySQL_GetByRunID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "binary_name", "symbol_bytes", "phases", "created_at"}).
		AddRow(int64(7), "run-m", "libm.so", int64(42), []byte(`{"parse":20}`), time.Now())
	mock.ExpectQuery("SELECT \\* FROM `fardiff_runs` WHERE run_id = \\?").WillReturnRows(rows)

	run, err := repo.GetByRunID(context.Background(), "run-m")
	require.NoError(t, err)
	assert.Equal(t, "libm.so", run.Binary)
	assert.Equal(t, int64(42), run.SymbolBytes)
	assert.Equal(t, 20*time.Millisecond, run.Phases["parse"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRunRepository_MySQL_GetByRunIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `fardiff_runs`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByRunID(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGormRunRepository_MySQL_ListError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `fardiff_runs`").WillReturnError(errors.New("timeout"))

	_, err := repo.List(context.Background(), "", 10)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.GetErrorCode(err))
}
