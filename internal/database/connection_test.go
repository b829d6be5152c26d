package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/fluxbase-eu/socialgraph/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// extractTableName Tests
// =============================================================================

func TestExtractTableName(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected string
	}{
		{"simple select", `SELECT * FROM users`, "users"},
		{"quoted select", `SELECT "id", "name" FROM "users" WHERE "id" = $1`, "users"},
		{"lowercase select", `select * from posts`, "posts"},
		{"insert", `INSERT INTO "profiles" ("id") VALUES ($1)`, "profiles"},
		{"update", `UPDATE "users" SET "name" = $1 WHERE "id" = $2`, "users"},
		{"delete", `DELETE FROM "subscribers_on_authors" WHERE "author_id" = $1`, "subscribers_on_authors"},
		{"unknown statement", `VACUUM`, "unknown"},
		{"select without from", `SELECT 1`, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTableName(tt.sql))
		})
	}
}

// =============================================================================
// extractOperation Tests
// =============================================================================

func TestExtractOperation(t *testing.T) {
	tests := []struct {
		sql      string
		expected string
	}{
		{"SELECT 1", "select"},
		{"  insert into users", "insert"},
		{"UPDATE users SET", "update"},
		{"DELETE FROM users", "delete"},
		{"BEGIN", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractOperation(tt.sql))
		})
	}
}

// =============================================================================
// truncateQuery Tests
// =============================================================================

func TestTruncateQuery(t *testing.T) {
	assert.Equal(t, "SELECT * FROM users", truncateQuery("SELECT * FROM users", 19))
	assert.Equal(t, "SELEC... (truncated)", truncateQuery("SELECT * FROM users", 5))
}

// =============================================================================
// Embedded migrations
// =============================================================================

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	var ups, downs int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
	assert.GreaterOrEqual(t, ups, 1)

	initial, err := fs.ReadFile(migrationsFS, "migrations/000001_create_social_schema.up.sql")
	require.NoError(t, err)
	for _, table := range []string{"member_types", "users", "profiles", "posts", "subscribers_on_authors"} {
		assert.Contains(t, string(initial), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(initial), "'BASIC'")
	assert.Contains(t, string(initial), "'BUSINESS'")
}

func TestPoolConfigAcceptsEscapedPassword(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "p@ss/w:rd",
		Database: "socialgraph",
		SSLMode:  "disable",
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	require.NoError(t, err)
	assert.Equal(t, "app", poolConfig.ConnConfig.User)
	assert.Equal(t, "p@ss/w:rd", poolConfig.ConnConfig.Password)
	assert.Equal(t, "db", poolConfig.ConnConfig.Host)
	assert.Equal(t, "socialgraph", poolConfig.ConnConfig.Database)
}
