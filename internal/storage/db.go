// Package storage keeps the analysis run history in a local SQLite
// database, so repeated runs over a project can be compared and audited.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"symguard/internal/errors"
	"symguard/internal/logging"
)

const currentSchemaVersion = 1

// DB is a database handle with transaction helpers.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the history database under <root>/.symguard/.
func Open(root string, logger *logging.Logger) (*DB, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	dir := filepath.Join(root, ".symguard")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to create state directory", err).WithPath(dir)
	}
	dbPath := filepath.Join(dir, "history.db")
	existed := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "failed to open history database", err).WithPath(dbPath)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.New(errors.StoreUnavailable, "failed to set pragma", err).WithPath(dbPath)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}
	if !existed {
		logger.Info("creating history database", map[string]interface{}{"path": dbPath})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, err
		}
	} else if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to roll back transaction", map[string]interface{}{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)`); err != nil {
			return err
		}
		if err := createRunsTable(tx); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}

func (db *DB) migrate() error {
	var version int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// No version row means a pre-versioning database; the schema is
		// additive so re-initializing is safe.
		return db.initializeSchema()
	}
	if version == currentSchemaVersion {
		return nil
	}
	db.logger.Info("migrating history database", map[string]interface{}{
		"from": version, "to": currentSchemaVersion,
	})
	// Sequential migrations land here as the schema evolves.
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion)
		return err
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
