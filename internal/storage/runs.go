package storage

import (
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Run is one recorded analysis.
type Run struct {
	ID               string    `json:"id"`
	ProjectPath      string    `json:"projectPath"`
	GraphFingerprint string    `json:"graphFingerprint"`
	SymbolCount      int       `json:"symbolCount"`
	EdgeCount        int       `json:"edgeCount"`
	RuleCount        int       `json:"ruleCount"`
	ExcludedCount    int       `json:"excludedCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			project_path TEXT NOT NULL,
			graph_fingerprint TEXT NOT NULL,
			symbol_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL,
			rule_count INTEGER NOT NULL,
			excluded_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`)
	return err
}

// Fingerprint hashes a serialized graph document. Two runs with the same
// fingerprint analyzed the exact same resolved graph.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordRun inserts a run row. The id is generated here and returned.
func (db *DB) RecordRun(run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	err := db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO runs (id, project_path, graph_fingerprint, symbol_count,
				edge_count, rule_count, excluded_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.ProjectPath, run.GraphFingerprint, run.SymbolCount,
			run.EdgeCount, run.RuleCount, run.ExcludedCount,
			run.CreatedAt.Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns lists the newest runs, most recent first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, project_path, graph_fingerprint, symbol_count,
			edge_count, rule_count, excluded_count, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &run.ProjectPath, &run.GraphFingerprint,
			&run.SymbolCount, &run.EdgeCount, &run.RuleCount,
			&run.ExcludedCount, &createdAt); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
