package memory

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/ensembleai/ensemble/pkg/core"
	_ "modernc.org/sqlite"
)

// SQLiteArchive persists finished run histories in SQLite so runs can be
// inspected after the fact. The live store stays in memory; the archive is
// a write-once record per run.
type SQLiteArchive struct {
	db *sql.DB
}

// NewSQLiteArchive creates a SQLite-backed archive and ensures schema.
func NewSQLiteArchive(db *sql.DB) (*SQLiteArchive, error) {
	if db == nil {
		return nil, stderrors.New("db is nil")
	}
	if err := ensureArchiveSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteArchive{db: db}, nil
}

// OpenSQLiteArchive opens (or creates) an archive at the given path.
func OpenSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteArchive(db)
}

// SaveRun stores the full history of a run in emission order.
func (a *SQLiteArchive) SaveRun(ctx context.Context, runID string, history []core.Message) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, msg := range history {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_messages (run_id, message_id, ts, role, cause_by, content, sent_to)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			msg.ID,
			msg.Timestamp,
			msg.Role,
			msg.CauseBy,
			msg.Content,
			strings.Join(msg.SentTo, ","),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRun returns the archived history of a run in emission order.
func (a *SQLiteArchive) LoadRun(ctx context.Context, runID string) ([]core.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT message_id, ts, role, cause_by, content, sent_to
		FROM run_messages
		WHERE run_id = ?
		ORDER BY ts ASC, rowid ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []core.Message
	for rows.Next() {
		var msg core.Message
		var sentTo string
		if err := rows.Scan(&msg.ID, &msg.Timestamp, &msg.Role, &msg.CauseBy, &msg.Content, &sentTo); err != nil {
			return nil, err
		}
		if sentTo != "" {
			msg.SentTo = strings.Split(sentTo, ",")
		}
		history = append(history, msg)
	}
	return history, rows.Err()
}

// Close closes the underlying database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

func ensureArchiveSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS run_messages (
			run_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			role TEXT NOT NULL,
			cause_by TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_to TEXT NOT NULL,
			PRIMARY KEY (run_id, message_id)
		);
		CREATE INDEX IF NOT EXISTS idx_run_messages_run ON run_messages (run_id, ts);
	`)
	return err
}
