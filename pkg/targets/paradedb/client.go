// Package paradedb speaks to a ParadeDB (PostgreSQL + BM25) endpoint: a SQL
// query client for the benchmark phase and a creator/loader for setup.
package paradedb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/searchbench/searchbench/pkg/query"
)

const (
	PgxDriver = "pgx"
	PqDriver  = "postgres"
)

// Client is the per-worker SQL client. Each worker owns its connection
// exclusively for the worker's lifetime; connections are never shared, so
// pool contention cannot leak into the measured timings.
type Client struct {
	db *sql.DB

	// useExplainTiming switches to backend-reported execution time via
	// EXPLAIN ANALYZE, falling back to wall clock when the plan output cannot
	// be parsed.
	useExplainTiming bool
}

func NewClient(driver, connStr string, useExplainTiming bool) (*Client, error) {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, &query.ConnectivityError{Err: err}
	}
	// One exclusive session per worker.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &query.ConnectivityError{Err: err}
	}
	return &Client{db: db, useExplainTiming: useExplainTiming}, nil
}

// Submit runs one rendered query and times it. Backend rejections become
// error outcomes; a lost session is returned as an error and stops the
// calling worker.
func (c *Client) Submit(ctx context.Context, inst *query.Instance) (query.Outcome, error) {
	if c.useExplainTiming {
		return c.submitExplain(ctx, inst)
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, string(inst.Payload))
	if err != nil {
		return c.classify(err)
	}
	for rows.Next() {
	}
	err = rows.Err()
	rows.Close()
	took := time.Since(start)
	if err != nil {
		return c.classify(err)
	}
	return query.SuccessOutcome(took), nil
}

// submitExplain wraps the query in EXPLAIN ANALYZE and reads the
// backend-reported execution time out of the plan text.
func (c *Client) submitExplain(ctx context.Context, inst *query.Instance) (query.Outcome, error) {
	stmt := "EXPLAIN ANALYZE " + strings.TrimSuffix(string(inst.Payload), ";")
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, stmt)
	if err != nil {
		return c.classify(err)
	}
	reported := time.Duration(0)
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			break
		}
		if d, ok := parseExecutionTime(line); ok {
			reported = d
		}
	}
	err = rows.Err()
	rows.Close()
	wall := time.Since(start)
	if err != nil {
		return c.classify(err)
	}
	if reported > 0 {
		return query.SuccessOutcome(reported), nil
	}
	return query.SuccessOutcome(wall), nil
}

// classify splits backend rejections (query outcome, worker continues) from
// lost sessions (worker-fatal).
func (c *Client) classify(err error) (query.Outcome, error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return query.ErrorOutcome(err), nil
	}
	return query.Outcome{}, &query.ConnectivityError{Err: err}
}

func (c *Client) Close() error {
	return c.db.Close()
}

// parseExecutionTime extracts "Execution Time: 1.234 ms" from an EXPLAIN
// ANALYZE plan line.
func parseExecutionTime(line string) (time.Duration, bool) {
	const prefix = "Execution Time:"
	idx := strings.Index(line, prefix)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(prefix):])
	rest = strings.TrimSuffix(rest, "ms")
	rest = strings.TrimSpace(rest)
	ms, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}
