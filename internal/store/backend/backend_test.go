package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/inovacc/reposync/internal/config"
	"github.com/inovacc/reposync/internal/store"
	"github.com/inovacc/reposync/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		check   func(t *testing.T, s store.Store)
		wantErr bool
	}{
		{
			name: "sqlite",
			cfg:  config.DatabaseConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "a.db")},
			check: func(t *testing.T, s store.Store) {
				_, ok := s.(*sqlite.Store)
				assert.True(t, ok)
			},
		},
		{
			name: "bolt",
			cfg:  config.DatabaseConfig{Backend: config.BackendBolt, Path: filepath.Join(dir, "a.bolt")},
			check: func(t *testing.T, s store.Store) {
				_, ok := s.(*store.Bolt)
				assert.True(t, ok)
			},
		},
		{
			name:    "unknown",
			cfg:     config.DatabaseConfig{Backend: "postgres", Path: filepath.Join(dir, "x")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)

			defer func() { _ = s.Close() }()

			tt.check(t, s)
			require.NoError(t, s.EnsureSchema(context.Background()))
			assert.NoError(t, s.Ping(context.Background()))
		})
	}
}
