package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
)

func TestDSN(t *testing.T) {
	driver, dsn, err := DSN(config.DBConfig{Driver: "mysql", User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "pland"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Equal(t, "app:pw@tcp(db:3306)/pland?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true", dsn)

	_, dsn, err = DSN(config.DBConfig{Driver: "mysql", User: "app", Host: "db", Port: "3306", Name: "pland"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "app@tcp(db:3306)")

	driver, dsn, err = DSN(config.DBConfig{Driver: "sqlite3"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", driver)
	assert.Contains(t, dsn, "file::memory:?")

	_, _, err = DSN(config.DBConfig{Driver: "memory"})
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	body := `-- header
CREATE TABLE a (
  id INT
);

-- second
CREATE INDEX i ON a (id);
INSERT INTO a VALUES (1)`
	stmts := splitStatements(body)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.NotContains(t, stmts[0], ";")
	assert.Equal(t, "CREATE INDEX i ON a (id)", stmts[1])
	assert.Equal(t, "INSERT INTO a VALUES (1)", stmts[2])
}

func TestMigrateSQLite(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: "sqlite3", Path: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Skipf("sqlite3 unavailable: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init"}, applied)

	again, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again)

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))
	assert.Subset(t, tables, []string{
		"diaries", "humidity_readings", "images", "pest_wiki", "plant_wiki",
		"plants", "revoked_tokens", "schema_migrations", "user_preferences", "users",
	})
}
