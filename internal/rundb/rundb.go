// Package rundb provides the SQLite experiment database. It records
// the scope, one row per experiment (keyed by scope and canonical
// parameter JSON), and the computed measures of completed runs, so
// archive paths and results can be resolved across sessions.
package rundb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB is an open experiment database.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the experiment database at path
// and initializes the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS scopes (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS experiments (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scope_name  TEXT NOT NULL REFERENCES scopes(name),
	params_json TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE(scope_name, params_json)
);
CREATE TABLE IF NOT EXISTS measures (
	experiment_id INTEGER NOT NULL REFERENCES experiments(id),
	name          TEXT NOT NULL,
	value         REAL NOT NULL,
	PRIMARY KEY (experiment_id, name)
);`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// StoreScope records a scope definition under its name. Storing an
// already-known scope is a no-op; the original definition wins.
func (d *DB) StoreScope(ctx context.Context, name, content string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO scopes (name, content, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, content, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store scope %s: %w", name, err)
	}
	return nil
}

// ScopeNames lists the stored scope names.
func (d *DB) ScopeNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM scopes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ExperimentID resolves the id for a parameter set within a scope,
// creating a new experiment row if the parameter set has not been seen
// before. The parameter set is canonicalized as JSON with sorted keys,
// so the same params always map to the same id.
func (d *DB) ExperimentID(ctx context.Context, scopeName string, params map[string]any) (int64, error) {
	canon, err := canonicalParams(params)
	if err != nil {
		return 0, err
	}

	var id int64
	err = d.db.QueryRowContext(ctx,
		`SELECT id FROM experiments WHERE scope_name = ? AND params_json = ?`,
		scopeName, canon).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up experiment: %w", err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO experiments (scope_name, params_json, created_at) VALUES (?, ?, ?)`,
		scopeName, canon, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to create experiment: %w", err)
	}
	return res.LastInsertId()
}

// SaveMeasures upserts the computed measures of an experiment.
func (d *DB) SaveMeasures(ctx context.Context, experimentID int64, m map[string]float64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for name, value := range m {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO measures (experiment_id, name, value) VALUES (?, ?, ?)
			 ON CONFLICT(experiment_id, name) DO UPDATE SET value = excluded.value`,
			experimentID, name, value); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save measure %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Measures loads the stored measures of an experiment.
func (d *DB) Measures(ctx context.Context, experimentID int64) (map[string]float64, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name, value FROM measures WHERE experiment_id = ?`, experimentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		m[name] = value
	}
	return m, rows.Err()
}

// ArchivePath builds the default archive location for an experiment:
// <base>/scope_<name>/experiment_<id>. The archive step appends ".zip".
func ArchivePath(base, scopeName string, experimentID int64) string {
	return filepath.Join(base,
		"scope_"+scopeName,
		fmt.Sprintf("experiment_%03d", experimentID))
}

func canonicalParams(params map[string]any) (string, error) {
	// encoding/json writes map keys in sorted order, which makes the
	// serialization canonical.
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize params: %w", err)
	}
	return string(data), nil
}
