// Package history appends every snapshot to a SQLite database so scans can be
// compared after the process exits.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/projectdiscovery/arpscan/pkg/types"
	"github.com/rs/xid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const driverName = "sqlite"

// fixed width so stored times sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists snapshots
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the database at path and applies pending migrations
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanRow struct {
	ID        string `db:"id"`
	TakenAt   string `db:"taken_at"`
	HostCount int    `db:"host_count"`
}

type hostRow struct {
	ScanID     string `db:"scan_id"`
	IP         string `db:"ip"`
	MAC        string `db:"mac"`
	VendorName string `db:"vendor_name"`
	BlockType  string `db:"block_type"`
	Private    *bool  `db:"private"`
	LastUpdate string `db:"last_update"`
}

// Save stores snapshot and its hosts in a single transaction. A snapshot
// without ID is assigned one.
func (s *Store) Save(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = xid.New().String()
	}
	if snapshot.TakenAt.IsZero() {
		snapshot.TakenAt = time.Now()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO scans (id, taken_at, host_count) VALUES (:id, :taken_at, :host_count)`,
		scanRow{ID: snapshot.ID, TakenAt: snapshot.TakenAt.UTC().Format(timeLayout), HostCount: len(snapshot.Hosts)})
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}

	for _, host := range snapshot.Hosts {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO hosts (scan_id, ip, mac, vendor_name, block_type, private, last_update)
			 VALUES (:scan_id, :ip, :mac, :vendor_name, :block_type, :private, :last_update)`,
			hostRow{
				ScanID:     snapshot.ID,
				IP:         host.IP,
				MAC:        host.MAC,
				VendorName: host.VendorName,
				BlockType:  host.BlockType,
				Private:    host.Private,
				LastUpdate: host.LastUpdate,
			})
		if err != nil {
			return fmt.Errorf("inserting host %s: %w", host.IP, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing scan: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none was saved
func (s *Store) Latest(ctx context.Context) (*types.Snapshot, error) {
	var scan scanRow
	err := s.db.GetContext(ctx, &scan, `SELECT id, taken_at, host_count FROM scans ORDER BY taken_at DESC, rowid DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest scan: %w", err)
	}
	return s.load(ctx, scan)
}

// Count returns the number of stored snapshots
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scans`); err != nil {
		return 0, fmt.Errorf("counting scans: %w", err)
	}
	return n, nil
}

func (s *Store) load(ctx context.Context, scan scanRow) (*types.Snapshot, error) {
	takenAt, err := time.Parse(timeLayout, scan.TakenAt)
	if err != nil {
		return nil, fmt.Errorf("parsing scan time: %w", err)
	}

	var rows []hostRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT scan_id, ip, mac, vendor_name, block_type, private, last_update FROM hosts WHERE scan_id = ?`, scan.ID); err != nil {
		return nil, fmt.Errorf("loading hosts: %w", err)
	}

	snapshot := &types.Snapshot{
		ID:      scan.ID,
		Hosts:   make([]types.HostRecord, 0, len(rows)),
		TakenAt: takenAt,
	}
	for _, row := range rows {
		snapshot.Hosts = append(snapshot.Hosts, types.HostRecord{
			IP:         row.IP,
			MAC:        row.MAC,
			VendorName: row.VendorName,
			BlockType:  row.BlockType,
			Private:    row.Private,
			LastUpdate: row.LastUpdate,
		})
	}
	types.SortHosts(snapshot.Hosts)
	return snapshot, nil
}
