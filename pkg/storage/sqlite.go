package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
)

// SQLiteStore implements the Store interface using SQLite backend
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite storage instance
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initDB creates the session schema if it does not exist
func (s *SQLiteStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT DEFAULT '',
		remote_addr TEXT DEFAULT '',
		connected_at DATETIME,
		disconnected_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_disconnected_at ON sessions(disconnected_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSession inserts a session row or refreshes an existing one
func (s *SQLiteStore) SaveSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, user_id, remote_addr, connected_at, disconnected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			remote_addr = excluded.remote_addr,
			connected_at = excluded.connected_at,
			disconnected_at = excluded.disconnected_at
	`, session.ID, session.UserID, session.RemoteAddr, session.ConnectedAt, session.DisconnectedAt)

	return err
}

// SetSessionUser attaches an authenticated user id to an existing session
func (s *SQLiteStore) SetSessionUser(sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`UPDATE sessions SET user_id = ? WHERE id = ?`, userID, sessionID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrSessionNotFound
	}

	return nil
}

// CloseSession stamps the session's disconnect time
func (s *SQLiteStore) CloseSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		`UPDATE sessions SET disconnected_at = ? WHERE id = ?`,
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrSessionNotFound
	}

	return nil
}

// ActiveSessions returns sessions without a disconnect time, newest first
func (s *SQLiteStore) ActiveSessions() ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, user_id, remote_addr, connected_at, disconnected_at
		FROM sessions
		WHERE disconnected_at IS NULL
		ORDER BY connected_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var session Session
		var connectedAt sql.NullTime
		var disconnectedAt sql.NullTime

		if err := rows.Scan(&session.ID, &session.UserID, &session.RemoteAddr,
			&connectedAt, &disconnectedAt); err != nil {
			log.Printf("Error scanning session row: %v", err)
			continue
		}

		if connectedAt.Valid {
			session.ConnectedAt = connectedAt.Time
		}
		if disconnectedAt.Valid {
			t := disconnectedAt.Time
			session.DisconnectedAt = &t
		}

		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// CountSessions returns total and still-connected session counts
func (s *SQLiteStore) CountSessions() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&total); err != nil {
		return 0, 0, err
	}

	var active int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE disconnected_at IS NULL`,
	).Scan(&active); err != nil {
		return 0, 0, err
	}

	return total, active, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
