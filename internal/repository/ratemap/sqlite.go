package ratemap

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
)

const batchSize = 500

// Repository persists countervalue snapshots: one row per (pair, date key)
// plus the fetch window stats of every pair.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save upserts every rate and stat of snap in a single transaction and
// returns the number of rate rows written. Rate maps only ever grow, so rows
// absent from snap are left in place.
func (r *Repository) Save(ctx context.Context, snap countervalue.Snapshot) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	type row struct {
		pair string
		key  string
		rate float64
	}
	pairs := make([]string, 0, len(snap.Rates))
	for pair := range snap.Rates {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	var rows []row
	for _, pair := range pairs {
		for k, v := range snap.Rates[pair] {
			rows = append(rows, row{pair: pair, key: k, rate: v})
		}
	}

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		batch := rows[i:min(i+batchSize, len(rows))]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*3)
		for j, rw := range batch {
			placeholders[j] = "(?, ?, ?)"
			args = append(args, rw.pair, rw.key, rw.rate)
		}

		query := fmt.Sprintf( //nolint:gosec // placeholders are not user input
			`INSERT INTO countervalue_rates (pair, date_key, rate) VALUES %s
			ON CONFLICT(pair, date_key) DO UPDATE SET
				rate = excluded.rate,
				updated_at = strftime('%%Y-%%m-%%dT%%H:%%M:%%SZ', 'now')`,
			strings.Join(placeholders, ", "),
		)

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("save rates: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	for pair, stat := range snap.Stats {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO countervalue_stats (pair, oldest_date_requested) VALUES (?, ?)
			ON CONFLICT(pair) DO UPDATE SET
				oldest_date_requested = excluded.oldest_date_requested,
				updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
			pair, stat.OldestDateRequested.UTC().Format(time.RFC3339))
		if err != nil {
			return 0, fmt.Errorf("save stat %s: %w", pair, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

// Load reads the whole stored snapshot.
func (r *Repository) Load(ctx context.Context) (countervalue.Snapshot, error) {
	snap := countervalue.Snapshot{
		Rates: make(map[string]countervalue.RateMap),
		Stats: make(map[string]countervalue.Stat),
	}

	rows, err := r.db.QueryContext(ctx, `SELECT pair, date_key, rate FROM countervalue_rates`)
	if err != nil {
		return snap, fmt.Errorf("list rates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var pair, key string
		var rate float64
		if err := rows.Scan(&pair, &key, &rate); err != nil {
			return snap, fmt.Errorf("scan rate: %w", err)
		}
		m, ok := snap.Rates[pair]
		if !ok {
			m = make(countervalue.RateMap)
			snap.Rates[pair] = m
		}
		m[key] = rate
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("list rates: %w", err)
	}

	statRows, err := r.db.QueryContext(ctx, `SELECT pair, oldest_date_requested FROM countervalue_stats`)
	if err != nil {
		return snap, fmt.Errorf("list stats: %w", err)
	}
	defer func() { _ = statRows.Close() }()

	for statRows.Next() {
		var pair, oldest string
		if err := statRows.Scan(&pair, &oldest); err != nil {
			return snap, fmt.Errorf("scan stat: %w", err)
		}
		t, err := time.Parse(time.RFC3339, oldest)
		if err != nil {
			return snap, fmt.Errorf("parse stat %s: %w", pair, err)
		}
		snap.Stats[pair] = countervalue.Stat{OldestDateRequested: t}
	}
	return snap, statRows.Err()
}

// DeletePair removes every stored row of pair.
func (r *Repository) DeletePair(ctx context.Context, pair string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM countervalue_rates WHERE pair = ?`, pair); err != nil {
		return fmt.Errorf("delete rates: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM countervalue_stats WHERE pair = ?`, pair); err != nil {
		return fmt.Errorf("delete stat: %w", err)
	}
	return nil
}
