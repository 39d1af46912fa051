package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "circle-media/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("PORT", "")
	t.Setenv("METRICS_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, ShapeStandalone, cfg.PostShape)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_BadgerEmbedded(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendBadger)
	t.Setenv("POST_SHAPE", ShapeEmbedded)
	t.Setenv("BADGER_PATH", t.TempDir())
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ShapeEmbedded, cfg.PostShape)
	assert.False(t, cfg.MetricsEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		errType apperrors.ErrorType
	}{
		{
			name: "memory backend needs nothing else",
			cfg:  Config{Port: "8080", StoreBackend: BackendMemory},
		},
		{
			name:    "unknown backend",
			cfg:     Config{Port: "8080", StoreBackend: "mongo"},
			errType: apperrors.ErrorTypeConfig,
		},
		{
			name:    "unknown post shape",
			cfg:     Config{Port: "8080", StoreBackend: BackendBadger, BadgerPath: "x", PostShape: "sharded"},
			errType: apperrors.ErrorTypeConfig,
		},
		{
			name:    "neo4j without password",
			cfg:     Config{Port: "8080", StoreBackend: BackendNeo4j, Neo4jURI: "bolt://db:7687", Neo4jUser: "neo4j"},
			errType: apperrors.ErrorTypeConfig,
		},
		{
			name:    "missing port",
			cfg:     Config{StoreBackend: BackendMemory},
			errType: apperrors.ErrorTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, tt.errType))
		})
	}
}
