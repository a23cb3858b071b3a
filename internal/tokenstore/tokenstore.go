// Package tokenstore persists the token fields obtained from authenticate
// flows so CLI hosts can reuse them across runs. One row per (vendor, app
// id); the vendor response is stored as a JSON document since every vendor
// names its token fields differently
package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"appbridge/internal/bridge/domain"
	perr "appbridge/internal/platform/errors"
	"appbridge/internal/platform/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	vendor     TEXT NOT NULL,
	app_id     TEXT NOT NULL,
	fields     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (vendor, app_id)
);`

// Store is a sqlite-backed token table
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// Open opens (creating if needed) the token database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "open token store")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "migrate token store")
	}
	return &Store{db: db, log: logger.Named("tokenstore")}, nil
}

// Put upserts the token fields for (vendor, appID)
func (s *Store) Put(ctx context.Context, vendor domain.Vendor, appID string, fields map[string]any) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeSerialize, "encode token fields")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tokens (vendor, app_id, fields, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (vendor, app_id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`,
		string(vendor), appID, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "store token")
	}
	s.log.Debug().Str("vendor", string(vendor)).Str("app_id", appID).Msg("token stored")
	return nil
}

// Get returns the token fields for (vendor, appID)
func (s *Store) Get(ctx context.Context, vendor domain.Vendor, appID string) (map[string]any, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM tokens WHERE vendor = ? AND app_id = ?`,
		string(vendor), appID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, perr.Storef("no token stored for %s/%s", vendor, appID)
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStore, "load token")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSerialize, "decode token fields")
	}
	return fields, nil
}

// Delete removes the token row for (vendor, appID), if present
func (s *Store) Delete(ctx context.Context, vendor domain.Vendor, appID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE vendor = ? AND app_id = ?`,
		string(vendor), appID,
	); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStore, "delete token")
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return perr.WrapIf(s.db.Close(), perr.ErrorCodeStore, "close token store")
}
