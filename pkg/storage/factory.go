package storage

import (
	"fmt"

	"github.com/akramahmed1/quantenergx-gateway/pkg/config"
)

// NewStore returns a concrete Store based on database configuration.
// SQLite is the default when no type is set.
func NewStore(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Type {
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path)
	case "mysql":
		return NewMySQLStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
