package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	connectAttempts = 10
	connectBackoff  = time.Second
)

// OpenPostgres connects with a bounded retry, for databases that start
// alongside the service, then applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres: empty connection string")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = conn.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			_ = conn.Close()
			return nil, fmt.Errorf("ping postgres after %d attempts: %w", attempt, err)
		}
		log.Info("waiting for database", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}

	if err := migratePostgres(dsn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info("connected to database", zap.String("driver", string(Postgres)))

	return &DB{DB: conn, Driver: Postgres}, nil
}

func migratePostgres(dsn string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
