package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bangd/bang"
)

// metadataKey names the row holding the collection's last-updated stamp.
const metadataKey = "bangs_last_updated"

// ErrNoMetadata is returned by LastUpdated when the store has never been
// written to.
var ErrNoMetadata = errors.New("remote metadata not found")

// Store is the remote sync store: a SQLite database shared between devices.
// Records are keyed by bang key; local ids are not stored.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and applies migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FetchAll returns every remote record in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]bang.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, name, url, domain, category, subcategory, rank FROM bangs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("fetch bangs: %w", err)
	}
	defer rows.Close()

	out := []bang.Record{}
	for rows.Next() {
		var (
			r        bang.Record
			cat, sub sql.NullString
			rank     sql.NullInt64
		)
		if err := rows.Scan(&r.Key, &r.Name, &r.URL, &r.Domain, &cat, &sub, &rank); err != nil {
			return nil, fmt.Errorf("scan bang: %w", err)
		}
		r.Category = cat.String
		r.Subcategory = sub.String
		if rank.Valid {
			v := int(rank.Int64)
			r.Rank = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastUpdated returns the time of the last remote write.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_updated FROM metadata WHERE key = ?`, metadataKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoMetadata
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read metadata: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse metadata timestamp %q: %w", raw, err)
	}
	return ts, nil
}

// UpsertAll overwrites the remote collection with records and stamps ts.
func (s *Store) UpsertAll(ctx context.Context, records []bang.Record, ts time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bangs`); err != nil {
			return fmt.Errorf("clear bangs: %w", err)
		}
		for _, r := range records {
			if err := upsert(ctx, tx, r, ts); err != nil {
				return err
			}
		}
		return stamp(ctx, tx, ts)
	})
}

// UpsertOne inserts or replaces a single record and stamps ts.
func (s *Store) UpsertOne(ctx context.Context, rec bang.Record, ts time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsert(ctx, tx, rec, ts); err != nil {
			return err
		}
		return stamp(ctx, tx, ts)
	})
}

// DeleteByKey removes the record with key and stamps ts. Deleting a key that
// does not exist is not an error.
func (s *Store) DeleteByKey(ctx context.Context, key string, ts time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bangs WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete bang %q: %w", key, err)
		}
		return stamp(ctx, tx, ts)
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func upsert(ctx context.Context, tx *sql.Tx, r bang.Record, ts time.Time) error {
	var rank sql.NullInt64
	if r.Rank != nil {
		rank = sql.NullInt64{Int64: int64(*r.Rank), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bangs (key, name, url, domain, category, subcategory, rank, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			domain = excluded.domain,
			category = excluded.category,
			subcategory = excluded.subcategory,
			rank = excluded.rank,
			updated_at = excluded.updated_at`,
		r.Key, r.Name, r.URL, r.Domain,
		nullString(r.Category), nullString(r.Subcategory), rank,
		ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert bang %q: %w", r.Key, err)
	}
	return nil
}

func stamp(ctx context.Context, tx *sql.Tx, ts time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, last_updated) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET last_updated = excluded.last_updated`,
		metadataKey, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("stamp metadata: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
