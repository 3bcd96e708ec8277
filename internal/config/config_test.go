package config_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Processor.PollInterval)
	assert.Equal(t, 30, cfg.Processor.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Workflow.ResetDelay)
	assert.Equal(t, int64(50), cfg.Workflow.MaxFileSizeMB)
	assert.True(t, cfg.Workflow.SoftResetOnBack)
	assert.Equal(t, config.StoreBackendSimulated, cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Store.SimulatedDelay)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DOCFLOW_PROCESSOR_ENDPOINT", "https://api.example.com/")
	t.Setenv("DOCFLOW_PROCESSOR_POLL_INTERVAL", "3s")
	t.Setenv("DOCFLOW_STORE_BACKEND", "http")
	t.Setenv("DOCFLOW_STORE_ENDPOINT", "https://persist.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Processor.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Processor.PollInterval)
	assert.Equal(t, config.StoreBackendHTTP, cfg.Store.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":       {"DOCFLOW_STORE_BACKEND": "tape"},
		"http without endpoint": {"DOCFLOW_STORE_BACKEND": "http"},
		"non-positive attempts": {"DOCFLOW_PROCESSOR_MAX_ATTEMPTS": "0"},
		"non-positive interval": {"DOCFLOW_PROCESSOR_POLL_INTERVAL": "0s"},
		"negative timeout":      {"DOCFLOW_PROCESSOR_TIMEOUT_SECS": "-5"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestBindFlags_OverrideEnvironment(t *testing.T) {
	t.Setenv("DOCFLOW_PROCESSOR_MAX_ATTEMPTS", "7")
	t.Setenv("DOCFLOW_PROCESSOR_ENDPOINT", "https://env.example.com")

	fs := pflag.NewFlagSet("docflow", pflag.ContinueOnError)
	bindings := config.ProcessorFlags(fs)
	require.NoError(t, fs.Parse([]string{"--endpoint", "https://flag.example.com", "--poll-interval", "1s"}))

	v := viper.New()
	require.NoError(t, config.BindFlags(v, fs, bindings))

	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.Processor.Endpoint)
	assert.Equal(t, time.Second, cfg.Processor.PollInterval)
	assert.Equal(t, 7, cfg.Processor.MaxAttempts)
}
