package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

// RunMigrations brings the ticket schema up to date by executing the .sql
// files under migrations/ in lexical order. Every statement is idempotent
// (CREATE IF NOT EXISTS), so re-running the full set on each start is safe
// and keeps the runner free of a version table.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool; ticket schema not managed, tickets held in memory")
		return nil
	}

	names, err := migrationFiles(migrationsDir)
	if err != nil {
		return err
	}

	for _, name := range names {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		start := time.Now()
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		logger.Info("migration applied",
			zap.String("file", name),
			zap.Duration("took", time.Since(start)))
	}

	logger.Info("ticket schema up to date", zap.Int("migrations", len(names)))
	return nil
}

// migrationFiles lists the .sql files in lexical (and therefore version)
// order. Anything else in the directory is ignored.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
