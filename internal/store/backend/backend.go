// Package backend selects a store implementation by name.
package backend

import (
	"fmt"

	"github.com/inovacc/reposync/internal/config"
	"github.com/inovacc/reposync/internal/store"
	"github.com/inovacc/reposync/internal/store/sqlite"
)

// Open returns the store configured in cfg. The schema is not created;
// callers run EnsureSchema.
func Open(cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return sqlite.New(cfg.Path)
	case config.BackendBolt:
		return store.NewBolt(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Backend)
	}
}
