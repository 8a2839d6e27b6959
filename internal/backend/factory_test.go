package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/records"
	"fintrack/internal/records/apper"
	"fintrack/internal/records/memory"
	"fintrack/internal/records/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "apper", ApperBaseURL: "http://x", ApperProjectID: "p", ApperTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, ApperBackend, cfg.Type)
	assert.Equal(t, "p", cfg.ApperProjectID)

	_, err = FromAppConfig(&config.Config{DataBackend: "mongo"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: SheetsBackend}.Validate())
	assert.Error(t, Config{Type: ApperBackend, ApperBaseURL: "http://x"}.Validate())
	assert.Error(t, Config{Type: "bogus"}.Validate())
}

func TestCreateMemoryBackendFromSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{"category_c":[{"Id":3,"Name":"Food","name_c":"Food","is_custom_c":false}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataFile: path})
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &memory.Store{}, res.Store)
	rec, err := res.Store.Get(context.Background(), "category_c", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, "Food", rec[records.NameField])
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "fintrack.db")
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, res.Store)
	require.NotNil(t, res.Cleanup)
	assert.NoError(t, res.Close())
}

func TestCreateApperBackend(t *testing.T) {
	res, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{
		Type: ApperBackend, ApperBaseURL: "http://records.test", ApperProjectID: "p",
	})
	require.NoError(t, err)
	assert.IsType(t, &apper.Client{}, res.Store)
	assert.NoError(t, res.Close())
}
