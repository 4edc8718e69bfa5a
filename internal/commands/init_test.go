package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbooks-dev/openbooks/internal/config"
	"github.com/openbooks-dev/openbooks/internal/registry"
	"github.com/openbooks-dev/openbooks/internal/store/bolt"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(context.Background(), dir, "Acme Widgets", "USD", true))

	// Config is written next to the data files.
	cfg, err := config.Load(filepath.Join(dir, "openbooks.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DriverBolt, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "openbooks.db"), cfg.Store.Path)
	assert.Equal(t, "Acme Widgets", cfg.Company.Name)

	// The store holds the company and the seeded chart.
	st, err := bolt.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer st.Close()

	company, err := st.GetCompany(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", company.Name)

	accounts, err := st.ListAccounts(context.Background(), company.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, len(registry.DefaultChart()))
}

func TestRunInit_NoSeed(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(context.Background(), dir, "Bare Books", "EUR", false))

	cfg, err := config.Load(filepath.Join(dir, "openbooks.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Company.Currency)

	st, err := bolt.Open(cfg.Store.Path)
	require.NoError(t, err)
	defer st.Close()

	accounts, err := st.ListAccounts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = os.Stat(filepath.Join(dir, "openbooks.db"))
	assert.NoError(t, err)
}
