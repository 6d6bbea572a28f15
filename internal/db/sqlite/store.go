// Package sqlite persists vendor offers in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/sahraevent/venuesearch/internal/db"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
)

var _ db.Pinger = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS offers (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id      TEXT NOT NULL,
	title          TEXT NOT NULL,
	city           TEXT NOT NULL,
	headcount_min  INTEGER NOT NULL,
	headcount_max  INTEGER NOT NULL,
	price_min      REAL NOT NULL,
	price_max      REAL NOT NULL,
	duration_hours REAL NOT NULL DEFAULT 0,
	occasion       TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '',
	updated_at     TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	is_hot         INTEGER NOT NULL DEFAULT 0
)`

const offerColumns = `id, vendor_id, title, city, headcount_min, headcount_max, price_min, price_max,
	duration_hours, occasion, tags, updated_at, description, is_hot`

// Store is the offers table. Writes are serialized; reads run concurrently.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the database at path, enables WAL and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpPing, Err: err}
	}

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := conn.Exec(stmt); err != nil {
			_ = conn.Close()
			return nil, &db.Error{Op: db.OpMigrate, Err: err}
		}
	}
	return &Store{db: conn}, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // close passthrough
}

// AddOffers inserts offers in one transaction with the given partition flag
// and returns the assigned ids in input order.
func (s *Store) AddOffers(ctx context.Context, offers []offer.Offer, hot bool) ([]int64, error) {
	if len(offers) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpTx, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO offers (vendor_id, title, city, headcount_min, headcount_max,
		price_min, price_max, duration_hours, occasion, tags, updated_at, description, is_hot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]int64, 0, len(offers))
	for i := range offers {
		o := &offers[i]
		res, err := stmt.ExecContext(ctx,
			o.VendorID, o.Title, o.City, o.HeadcountMin, o.HeadcountMax,
			o.PriceMin, o.PriceMax, o.DurationHours,
			offer.JoinList(o.Occasion), offer.JoinList(o.Tags),
			o.UpdatedAt, o.Description, boolToInt(hot),
		)
		if err != nil {
			return nil, &db.Error{Op: db.OpInsert, Err: err}
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, &db.Error{Op: db.OpInsert, Err: err}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, &db.Error{Op: db.OpTx, Err: err}
	}
	return ids, nil
}

// Clear removes all offers.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM offers`); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// LoadPartition returns every offer of a partition ordered by id.
// Rows that fail to scan are skipped and counted.
func (s *Store) LoadPartition(ctx context.Context, p offer.Partition) ([]offer.Offer, int, error) {
	return s.query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE is_hot = ? ORDER BY id`,
		boolToInt(p == offer.Hot))
}

// GetByIDs returns the offers with the given ids in unspecified order.
// Unknown ids are omitted.
func (s *Store) GetByIDs(ctx context.Context, ids []int64) ([]offer.Offer, int, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	return s.query(ctx, `SELECT `+offerColumns+` FROM offers WHERE id IN (`+placeholders+`)`, args...)
}

// Count returns the number of offers per partition.
func (s *Store) Count(ctx context.Context) (stable, hot int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(is_hot = 0), 0), COALESCE(SUM(is_hot = 1), 0) FROM offers`)
	if err := row.Scan(&stable, &hot); err != nil {
		return 0, 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return stable, hot, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]offer.Offer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var (
		out     []offer.Offer
		skipped int
	)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, skipped, nil
}

func scanOffer(rows *sql.Rows) (offer.Offer, error) {
	var (
		o             offer.Offer
		occasion, tag string
		hot           int
	)
	err := rows.Scan(&o.ID, &o.VendorID, &o.Title, &o.City, &o.HeadcountMin, &o.HeadcountMax,
		&o.PriceMin, &o.PriceMax, &o.DurationHours, &occasion, &tag, &o.UpdatedAt, &o.Description, &hot)
	if err != nil {
		return offer.Offer{}, fmt.Errorf("scan offer: %w", err)
	}
	o.Occasion = offer.SplitList(occasion)
	o.Tags = offer.SplitList(tag)
	o.Hot = hot == 1
	return o, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
