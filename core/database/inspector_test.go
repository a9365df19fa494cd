package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	cfg := Config{
		Driver: DriverSQLite,
		Name:   ":memory:",
	}
	db, err := Connect(cfg)
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_players (id TEXT PRIMARY KEY, username TEXT, weekly_damage INTEGER)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_players")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "text", colMap["username"])
	assert.Equal(t, "integer", colMap["weekly_damage"])

	// PRAGMA table_info returns an empty result for a non-existent table
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE players (id TEXT PRIMARY KEY, username TEXT)").Error)

	missing, err := MissingColumns(db, "players", []string{"id", "USERNAME", "battalion"})
	require.NoError(t, err)
	assert.Equal(t, []string{"battalion"}, missing)

	missing, err = MissingColumns(db, "medals", []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}
