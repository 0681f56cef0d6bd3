package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	_ "github.com/lib/pq"
)

// ErrLeaseHeld is returned when another process holds the job's lease.
var ErrLeaseHeld = errors.New("job already running")

// AdvisoryLease serializes batch jobs across processes with Postgres
// session-level advisory locks.
type AdvisoryLease struct {
	conn *sql.DB
}

func NewAdvisoryLease(dsn string) (*AdvisoryLease, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return &AdvisoryLease{conn: conn}, nil
}

func (l *AdvisoryLease) Close() error {
	return l.conn.Close()
}

// Acquire takes the lease for job or returns ErrLeaseHeld. The returned
// release func must be called when the job finishes.
func (l *AdvisoryLease) Acquire(ctx context.Context, job string) (func(), error) {
	// advisory locks belong to the session, so hold one connection for the run
	conn, err := l.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("lease connection: %w", err)
	}

	key := leaseKey(job)
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pg_try_advisory_lock: %w", err)
	}
	if !ok {
		conn.Close()
		return nil, ErrLeaseHeld
	}

	return func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", key)
		conn.Close()
	}, nil
}

func leaseKey(job string) int64 {
	h := fnv.New64a()
	h.Write([]byte("rental-watch:" + job))
	return int64(h.Sum64())
}
