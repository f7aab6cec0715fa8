package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/soaringjerry/Scamwatch/internal/api"
	dbstore "github.com/soaringjerry/Scamwatch/internal/db"
	"github.com/soaringjerry/Scamwatch/internal/logging"
)

// openStore returns the SQLite store at dbPath. "memory" keeps everything in
// process, which is only useful for demos since nothing survives a restart.
func openStore(dbPath, migrationsDir string) (api.Store, func(), error) {
	if dbPath == "memory" {
		logging.Warn("using in-memory store; data is lost on restart")
		return api.NewMemoryStore(), func() {}, nil
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	st, err := dbstore.Open(dbPath, migrationsDir)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			logging.Warn("failed to close sqlite db", "err", err)
		}
	}
	logging.Info("sqlite store ready", "path", dbPath)
	return st, closeFn, nil
}
