package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/store/badgerstore"
	"circle-media/backend/internal/store/memory"
	"circle-media/backend/internal/store/sqlitestore"
	"circle-media/backend/internal/store/storetest"
	"circle-media/backend/pkg/config"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.Config
		want interface{}
	}{
		{"memory", config.Config{StoreBackend: config.BackendMemory}, &memory.Store{}},
		{"badger", config.Config{StoreBackend: config.BackendBadger, BadgerPath: filepath.Join(dir, "badger"), PostShape: config.ShapeEmbedded}, &badgerstore.Store{}},
		{"sqlite", config.Config{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "circle.db")}, &sqlitestore.Store{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, &tt.cfg)
			require.NoError(t, err)
			defer s.Close()

			assert.IsType(t, tt.want, s)
			require.NoError(t, s.CreateUser(ctx, storetest.NewUser("u1", "ada")))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "cassandra"})
	assert.Error(t, err)
}
