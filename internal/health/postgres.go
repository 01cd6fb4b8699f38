package health

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresProbe checks PostgreSQL reachability over a connection
// independent of the store's pool
type PostgresProbe struct {
	db *sql.DB
}

// NewPostgresProbe opens a small database/sql pool for health checks
func NewPostgresProbe(dsn string) (*PostgresProbe, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres probe: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PostgresProbe{db: db}, nil
}

// HealthCheck verifies PostgreSQL connectivity
func (p *PostgresProbe) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres probe: %w", err)
	}
	return nil
}

// Close releases the probe's connections
func (p *PostgresProbe) Close() error {
	return p.db.Close()
}
