// Package sqlite keeps the applied-state journal in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"v6share"
	"v6share/internal/controller"
	"v6share/pkg/ipam"

	_ "modernc.org/sqlite"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS applied (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	refresh_id TEXT NOT NULL,
	upstream_id TEXT NOT NULL,
	upstream_name TEXT NOT NULL,
	upstream_addr TEXT NOT NULL,
	daemon_pid INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS applied_served (
	interface_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	link_index INTEGER NOT NULL,
	network_id INTEGER NOT NULL,
	subnet TEXT NOT NULL
)`}

// Store is a single-row journal of what the controller last applied.
type Store struct {
	db *sql.DB
}

var _ controller.Journal = (*Store)(nil)

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set state db journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set state db busy timeout: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize journal schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the journal with r.
func (s *Store) Save(ctx context.Context, r controller.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	addr := ""
	if r.Upstream.Addr.IsValid() {
		addr = r.Upstream.Addr.String()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO applied (id, refresh_id, upstream_id, upstream_name, upstream_addr, daemon_pid, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)`,
		r.RefreshID, r.Upstream.ID, r.Upstream.Name, addr, r.DaemonPID,
		r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save applied upstream: %w", err)
	}

	for _, served := range r.Served {
		subnet := ""
		if p, err := ipam.Subnet(r.Upstream.Addr, served.NetworkID); err == nil {
			subnet = p.String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO applied_served (interface_id, name, link_index, network_id, subnet)
			 VALUES (?, ?, ?, ?, ?)`,
			served.ID, served.Name, served.Index, served.NetworkID, subnet,
		); err != nil {
			return fmt.Errorf("save served interface %s: %w", served.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal save: %w", err)
	}
	return nil
}

// Load returns the journaled record. The bool is false when nothing is
// applied.
func (s *Store) Load(ctx context.Context) (controller.Record, bool, error) {
	var (
		r         controller.Record
		addr      string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT refresh_id, upstream_id, upstream_name, upstream_addr, daemon_pid, updated_at FROM applied WHERE id = 1`,
	).Scan(&r.RefreshID, &r.Upstream.ID, &r.Upstream.Name, &addr, &r.DaemonPID, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return controller.Record{}, false, nil
		}
		return controller.Record{}, false, fmt.Errorf("query applied upstream: %w", err)
	}
	if addr != "" {
		if r.Upstream.Addr, err = netip.ParseAddr(addr); err != nil {
			return controller.Record{}, false, fmt.Errorf("parse applied upstream address %q: %w", addr, err)
		}
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return controller.Record{}, false, fmt.Errorf("parse applied timestamp %q: %w", updatedAt, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT interface_id, name, link_index, network_id FROM applied_served ORDER BY network_id, interface_id`)
	if err != nil {
		return controller.Record{}, false, fmt.Errorf("list served interfaces: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var served v6share.ServedInterface
		if err := rows.Scan(&served.ID, &served.Name, &served.Index, &served.NetworkID); err != nil {
			return controller.Record{}, false, fmt.Errorf("scan served interface row: %w", err)
		}
		r.Served = append(r.Served, served)
	}
	if err := rows.Err(); err != nil {
		return controller.Record{}, false, fmt.Errorf("iterate served interface rows: %w", err)
	}
	return r, true, nil
}

// Clear empties the journal.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal clear: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal clear: %w", err)
	}
	return nil
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM applied_served`); err != nil {
		return fmt.Errorf("clear served interfaces: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM applied`); err != nil {
		return fmt.Errorf("clear applied upstream: %w", err)
	}
	return nil
}
