package migrations

import (
	"context"
	"fmt"

	"protocol-stats/internal/storage/postgres"
)

// RunPostgresMigrations creates the raw record and load progress tables.
// The database itself must exist; it is the one named in the pool's DSN.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := readMigrations(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	// pgx runs a multi-statement file in one simple-protocol Exec
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply postgres migration %s: %w", m.name, err)
		}
	}
	return nil
}
