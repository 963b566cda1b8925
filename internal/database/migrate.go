package database

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// schemaVersion reads the applied migration version from PRAGMA user_version.
func schemaVersion(conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// setSchemaVersion stamps user_version. Must run outside the migration's
// transaction: modernc/sqlite rejects PRAGMA user_version inside one. A
// crash between commit and stamp is harmless since the DDL is idempotent
// and the migration re-runs.
func setSchemaVersion(conn *sql.DB, v int) error {
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("setting schema version %d: %w", v, err)
	}
	return nil
}

// migrate applies every migration newer than the stored user_version, each
// in its own transaction.
func migrate(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}
	if current >= latestVersion() {
		return nil
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		logrus.WithFields(logrus.Fields{"version": m.Version, "description": m.Description}).
			Info("applying schema migration")

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		if err := setSchemaVersion(conn, m.Version); err != nil {
			return err
		}
	}

	return nil
}
