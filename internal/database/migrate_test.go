package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(Migrations, migrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Equal(t, []string{"00001_create_users.sql", "00002_create_analysis_session_stats.sql"}, names)

	b, err := fs.ReadFile(Migrations, migrationsDir+"/00002_create_analysis_session_stats.sql")
	require.NoError(t, err)
	sqlText := string(b)
	require.Contains(t, sqlText, "-- +goose Up")
	require.Contains(t, sqlText, "-- +goose Down")
	require.True(t, strings.Contains(sqlText, "ON UPDATE CASCADE ON DELETE CASCADE"))
}

func TestMigrateUpUsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, MigrateUp(context.Background(), nil))
	require.Equal(t, migrationsDir, gotDir)
}

func TestMigrateDownPropagatesError(t *testing.T) {
	orig := gooseDown
	t.Cleanup(func() { gooseDown = orig })

	boom := errors.New("boom")
	gooseDown = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	require.ErrorIs(t, MigrateDown(context.Background(), nil), boom)
}
