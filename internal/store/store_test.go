package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docflow/internal/config"
	"docflow/internal/store"
)

func TestNew_Backends(t *testing.T) {
	cfg := &config.Config{}

	b, err := store.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, config.StoreBackendSimulated, b.Name)
	assert.NoError(t, b.Close())

	cfg.Store = config.StoreConfig{Backend: config.StoreBackendHTTP, Endpoint: "http://persist.local"}
	b, err = store.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, config.StoreBackendHTTP, b.Name)

	cfg.Store.Backend = "floppy"
	_, err = store.New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
