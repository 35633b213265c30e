package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger records which alerts have been claimed for delivery so that a
// redelivered alert is sent at most once.
type Ledger interface {
	// Claim returns true if the caller now owns delivery of the report's alert.
	Claim(ctx context.Context, reportID int64) (bool, error)

	// Release gives up a claim after a transient failure so a retry can claim it.
	Release(ctx context.Context, reportID int64) error
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[int64]struct{}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[int64]struct{})}
}

// Claim implements Ledger.
func (l *MemoryLedger) Claim(_ context.Context, reportID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.claimed[reportID]; ok {
		return false, nil
	}
	l.claimed[reportID] = struct{}{}
	return true, nil
}

// Release implements Ledger.
func (l *MemoryLedger) Release(_ context.Context, reportID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, reportID)
	return nil
}

// PostgresLedger is a Ledger backed by the alert_deliveries table, shared by
// the API and every worker instance.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a new PostgreSQL ledger.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// Claim implements Ledger.
func (l *PostgresLedger) Claim(ctx context.Context, reportID int64) (bool, error) {
	tag, err := l.pool.Exec(ctx,
		`INSERT INTO alert_deliveries (report_id) VALUES ($1) ON CONFLICT (report_id) DO NOTHING`,
		reportID,
	)
	if err != nil {
		return false, fmt.Errorf("claim alert %d: %w", reportID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release implements Ledger.
func (l *PostgresLedger) Release(ctx context.Context, reportID int64) error {
	if _, err := l.pool.Exec(ctx, `DELETE FROM alert_deliveries WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("release alert %d: %w", reportID, err)
	}
	return nil
}
