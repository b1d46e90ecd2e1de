package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "vpallet.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle", DSN: "x"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMigrator_Up(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	m := NewMigrator(db, zap.NewNop())

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "second run applies nothing")

	var counter int64
	require.NoError(t, db.GetContext(ctx, &counter, "SELECT value FROM counters WHERE name = 'voucher_number'"))
	assert.Zero(t, counter)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := NewMigrator(db, zap.NewNop()).Up(ctx)
	require.NoError(t, err)

	insert := "INSERT INTO tenants (id, name, created_at) VALUES (?, ?, ?)"
	_, err = db.ExecContext(ctx, insert, "t-1", "Matriz", time.Now().UTC())
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "t-2", "Matriz", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, "INSERT INTO users (id, username, password_hash, tenant_id, created_at) VALUES (?, ?, ?, ?, ?)",
		"u-1", "op", "x", "missing-tenant", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	assert.False(t, IsUniqueViolation(errors.New("unique constraint failed")))
}

func TestStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (id TEXT);

CREATE TABLE b (
    id TEXT
);
INSERT INTO a (id) VALUES ('x;y');
`
	got := statements(sql)
	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE a (id TEXT)", got[0])
	assert.Contains(t, got[1], "CREATE TABLE b")
	assert.Equal(t, "INSERT INTO a (id) VALUES ('x;y')", got[2])
}
