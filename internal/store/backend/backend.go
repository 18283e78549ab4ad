// Package backend opens the store selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"

	"habitsAPI/internal/config"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/store"
	"habitsAPI/internal/store/firestore"
	"habitsAPI/internal/store/postgres"
	"habitsAPI/internal/store/sqlite"
)

// Open returns the configured store. app is required only for the firestore
// backend.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "backend", cfg.StoreBackend, "path", cfg.SQLitePath)
		return s, nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "backend", cfg.StoreBackend)
		return s, nil

	case config.BackendFirestore:
		if app == nil {
			return nil, errors.New("firestore backend requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
		logger.Info("store opened", "backend", cfg.StoreBackend)
		return firestore.New(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
