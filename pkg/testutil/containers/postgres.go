//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer holds the identity database.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	URL       string
	DB        *sql.DB
}

func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("territorial"),
		tcpostgres.WithUsername("territorial"),
		tcpostgres.WithPassword("territorial"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresContainer{Container: container, URL: url, DB: db}, nil
}

// Truncate empties the given tables.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
