package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientMigratesSchema(t *testing.T) {
	c, err := NewClient(WithPath(MemoryPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Health(context.Background()))

	for _, table := range []string{"settings", "ohlc"} {
		assert.True(t, c.DB().Migrator().HasTable(table), table)
	}
	assert.True(t, c.DB().Migrator().HasIndex("ohlc", "unique_ticker_interval_date"))
}

func TestNewClientCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.db")

	c, err := NewClient(WithPath("sqlite:///" + path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, path, c.Path())
	assert.FileExists(t, path)
}

func TestMigrateIsIdempotent(t *testing.T) {
	c, err := NewClient(WithPath(MemoryPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	sqlDB, err := c.DB().DB()
	require.NoError(t, err)
	assert.NoError(t, Migrate(context.Background(), sqlDB))
}

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "data/development.db", TrimScheme("sqlite:///data/development.db"))
	assert.Equal(t, "/var/lib/bot.db", TrimScheme("sqlite:////var/lib/bot.db"))
	assert.Equal(t, "bot.db", TrimScheme(" bot.db "))
	assert.Equal(t, MemoryPath, TrimScheme(MemoryPath))
}
