package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardiff/pkg/config"
	apperrors "github.com/fardiff/pkg/errors"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.HistoryConfig
		wantName string
	}{
		{"SQLite", config.HistoryConfig{Type: "sqlite", Path: "x.db"}, "sqlite"},
		{"DefaultSQLite", config.HistoryConfig{Path: "x.db"}, "sqlite"},
		{"MySQL", config.HistoryConfig{Type: "mysql", Host: "db"}, "mysql"},
		{"PostgreSQL", config.HistoryConfig{Type: "postgres", Host: "db"}, "postgres"},
		{"PostgreSQL_Alt", config.HistoryConfig{Type: "postgresql", Host: "db"}, "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
		})
	}

	t.Run("Unsupported", func(t *testing.T) {
		_, err := Dialector(&config.HistoryConfig{Type: "oracle"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConfigError(err))
	})
}

func TestNewRunRepositoryFromConfig_SQLiteFile(t *testing.T) {
	cfg := &config.HistoryConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}

	repo, closeFn, err := NewRunRepositoryFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repo.Save(context.Background(), sampleRun("r1", "a.so")))
	runs, err := repo.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, Close(nil))
}
