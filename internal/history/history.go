// Package history is an append-only SQLite-backed log of load order
// snapshots, so a caller can see how a profile's plugin list changed
// across saves and diff any two points in that history.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSnapshotNotFound is returned when a snapshot ID doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Config holds configuration for the history store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// Store records and retrieves load order snapshots.
type Store struct {
	db *sql.DB
}

// Open creates or opens a history store at cfg.DBPath, creating the
// schema if needed.
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			taken_at INTEGER NOT NULL,
			entries TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_label ON snapshots(label);
	`
	_, err := db.Exec(schema)
	return err
}

// PluginState is the serializable shape of one plugin within a
// snapshot, independent of loadorder.Entry so the schema on disk
// doesn't shift every time that type grows a field.
type PluginState struct {
	Name     string `json:"name"`
	IsMaster bool   `json:"isMaster"`
	IsLight  bool   `json:"isLight"`
	Active   bool   `json:"active"`
}

// Snapshot is one recorded load order at a point in time.
type Snapshot struct {
	ID      int64
	Label   string
	TakenAt time.Time
	Plugins []PluginState
}

// Record appends a new snapshot for label (typically a game profile
// name or handle ID) and returns its ID.
func (s *Store) Record(ctx context.Context, label string, plugins []PluginState) (int64, error) {
	data, err := json.Marshal(plugins)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (label, taken_at, entries) VALUES (?, ?, ?)
	`, label, time.Now().UnixMilli(), string(data))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	return res.LastInsertId()
}

func scanSnapshot(rowID int64, label string, takenAtMillis int64, data string) (Snapshot, error) {
	var plugins []PluginState
	if err := json.Unmarshal([]byte(data), &plugins); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return Snapshot{
		ID:      rowID,
		Label:   label,
		TakenAt: time.UnixMilli(takenAtMillis).UTC(),
		Plugins: plugins,
	}, nil
}

// Get retrieves a single snapshot by ID.
func (s *Store) Get(ctx context.Context, id int64) (Snapshot, error) {
	var label, data string
	var takenAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT label, taken_at, entries FROM snapshots WHERE id = ?
	`, id).Scan(&label, &takenAt, &data)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	return scanSnapshot(id, label, takenAt, data)
}

// List returns up to limit snapshots for label, most recent first. A
// limit of 0 returns every snapshot for label.
func (s *Store) List(ctx context.Context, label string, limit int) ([]Snapshot, error) {
	query := `SELECT id, label, taken_at, entries FROM snapshots WHERE label = ? ORDER BY id DESC`
	args := []any{label}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var id, takenAt int64
		var rowLabel, data string
		if err := rows.Scan(&id, &rowLabel, &takenAt, &data); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap, err := scanSnapshot(id, rowLabel, takenAt, data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Diff is the set of plugin-level changes between two snapshots.
type Diff struct {
	Added            []string
	Removed          []string
	ActivatedNames   []string
	DeactivatedNames []string
	OrderChanged     bool
}

// Diff compares the "from" snapshot against the "to" snapshot.
func (s *Store) Diff(ctx context.Context, fromID, toID int64) (Diff, error) {
	from, err := s.Get(ctx, fromID)
	if err != nil {
		return Diff{}, err
	}
	to, err := s.Get(ctx, toID)
	if err != nil {
		return Diff{}, err
	}
	return diffSnapshots(from, to), nil
}

func diffSnapshots(from, to Snapshot) Diff {
	fromByName := make(map[string]PluginState, len(from.Plugins))
	fromOrder := make([]string, len(from.Plugins))
	for i, p := range from.Plugins {
		fromByName[p.Name] = p
		fromOrder[i] = p.Name
	}
	toByName := make(map[string]PluginState, len(to.Plugins))
	toOrder := make([]string, len(to.Plugins))
	for i, p := range to.Plugins {
		toByName[p.Name] = p
		toOrder[i] = p.Name
	}

	var d Diff
	for _, p := range to.Plugins {
		prev, existed := fromByName[p.Name]
		if !existed {
			d.Added = append(d.Added, p.Name)
			continue
		}
		if p.Active && !prev.Active {
			d.ActivatedNames = append(d.ActivatedNames, p.Name)
		} else if !p.Active && prev.Active {
			d.DeactivatedNames = append(d.DeactivatedNames, p.Name)
		}
	}
	for _, p := range from.Plugins {
		if _, stillPresent := toByName[p.Name]; !stillPresent {
			d.Removed = append(d.Removed, p.Name)
		}
	}

	d.OrderChanged = orderDiffers(fromOrder, toOrder)
	return d
}

// orderDiffers reports whether the relative order of names common to
// both lists changed, ignoring additions and removals.
func orderDiffers(from, to []string) bool {
	toIndex := make(map[string]int, len(to))
	for i, n := range to {
		toIndex[n] = i
	}

	var common []int
	for _, n := range from {
		if i, ok := toIndex[n]; ok {
			common = append(common, i)
		}
	}
	for i := 1; i < len(common); i++ {
		if common[i] < common[i-1] {
			return true
		}
	}
	return false
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
