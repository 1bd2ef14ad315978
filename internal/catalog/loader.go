package catalog

import (
	"context"
	"fmt"
	"strings"
)

const sqlitePrefix = "sqlite:"

// Load resolves a catalog source: empty for the built-in menu, "sqlite:<path>"
// for a migrated SQLite database, anything else is read as a YAML file.
func Load(ctx context.Context, source, migrationsPath string) (*Catalog, error) {
	source = strings.TrimSpace(source)

	switch {
	case source == "":
		return Default(), nil
	case strings.HasPrefix(source, sqlitePrefix):
		repo, err := NewSQLiteRepository(strings.TrimPrefix(source, sqlitePrefix))
		if err != nil {
			return nil, err
		}
		defer repo.Close()

		if migrationsPath != "" {
			if err := repo.RunMigrations(migrationsPath); err != nil {
				return nil, err
			}
		}
		c, err := repo.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load sqlite catalog: %w", err)
		}
		return c, nil
	default:
		return LoadYAML(source)
	}
}
