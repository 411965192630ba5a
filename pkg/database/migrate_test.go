package database

import (
	"database/sql"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	raw, err := fs.ReadFile(migrationFS, "migrations/0001_init.sql")
	require.NoError(t, err)
	sqlText := string(raw)

	up := strings.Index(sqlText, "-- +goose Up")
	down := strings.Index(sqlText, "-- +goose Down")
	require.GreaterOrEqual(t, up, 0)
	require.Greater(t, down, up)

	schema := sqlText[up:down]
	for _, table := range []string{"users", "profiles", "properties", "bookings", "booking_idempotency"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
		assert.Contains(t, sqlText[down:], "DROP TABLE IF EXISTS "+table)
	}
	assert.Contains(t, schema, "bookings_dates_check")
	assert.Contains(t, schema, "ON DELETE SET NULL")
}

func TestMigrations_ProviderListsSources(t *testing.T) {
	// sql.Open does not dial, so the provider can be built offline.
	db, err := sql.Open("pgx", "postgres://bnb@127.0.0.1:1/bnb")
	require.NoError(t, err)

	p, err := newProvider(db)
	require.NoError(t, err)
	defer p.Close()

	sources := p.ListSources()
	require.NotEmpty(t, sources)
	assert.Equal(t, int64(1), sources[0].Version)
	assert.True(t, strings.HasSuffix(sources[0].Path, "0001_init.sql"))
}
