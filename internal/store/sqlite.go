package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/akoreshkov/retell-skill/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		original_text TEXT,
		state TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error. The transaction is released on every exit path.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateSession loads the session row (nil when absent), hands it to fn,
// and upserts whatever fn returns, all within one transaction.
func (s *SQLiteStore) UpdateSession(ctx context.Context, sessionID string, fn UpdateFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		sess, err := getSessionTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		updated, err := fn(sess)
		if err != nil {
			return err
		}
		if updated == nil {
			return nil
		}
		return upsertSessionTx(ctx, tx, updated)
	})
}

// ResetSession clears the stored text and resets the state in place. The
// session is deliberately not created when missing.
func (s *SQLiteStore) ResetSession(ctx context.Context, sessionID string) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE sessions SET original_text = NULL, state = ?, updated_at = ? WHERE session_id = ?`
		result, err := tx.ExecContext(ctx, query,
			string(domain.StateAwaitingOriginal), time.Now().Unix(), sessionID)
		if err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		found = rows > 0
		return nil
	})
	return found, err
}

func getSessionTx(ctx context.Context, tx *sql.Tx, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, original_text, state, created_at, updated_at
		FROM sessions WHERE session_id = ?`

	row := tx.QueryRowContext(ctx, query, sessionID)

	var sess domain.Session
	var originalText sql.NullString
	var state string
	var createdAt, updatedAt int64

	err := row.Scan(&sess.SessionID, &originalText, &state, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess.OriginalText = originalText.String
	sess.HasOriginal = originalText.Valid
	sess.State = domain.State(state)
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)

	return &sess, nil
}

func upsertSessionTx(ctx context.Context, tx *sql.Tx, sess *domain.Session) error {
	query := `
	INSERT INTO sessions (session_id, original_text, state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		original_text = excluded.original_text,
		state = excluded.state,
		updated_at = excluded.updated_at`

	var originalText interface{}
	if sess.HasOriginal {
		originalText = sess.OriginalText
	}

	_, err := tx.ExecContext(ctx, query,
		sess.SessionID, originalText, string(sess.State),
		sess.CreatedAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}
