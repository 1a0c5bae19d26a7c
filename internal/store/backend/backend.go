// Package backend opens a store.Store by driver name.
package backend

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/boltstore"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/sqlstore"
)

// Open opens the store for driver. File-backed DSNs (sqlite, bolt) that are
// relative resolve against baseDir.
func Open(driver, dsn, baseDir string) (store.Store, error) {
	switch driver {
	case store.DriverMemory:
		return memory.New(), nil
	case store.DriverSQLite:
		return sqlstore.Open(store.DriverSQLite, resolve(dsn, baseDir))
	case store.DriverPostgres:
		return sqlstore.Open(store.DriverPostgres, dsn)
	case store.DriverBolt:
		return boltstore.Open(resolve(dsn, baseDir))
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// resolve leaves absolute paths and file: URIs alone.
func resolve(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" || strings.HasPrefix(path, "file:") {
		return path
	}
	return filepath.Join(baseDir, path)
}
