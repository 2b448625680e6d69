package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
)

// MySQLStore implements the Store interface using MySQL backend
type MySQLStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewMySQLStore creates a new MySQL storage instance. The DSN must include
// parseTime=true so DATETIME columns scan into time.Time, and should include
// clientFoundRows=true so updates that leave values unchanged still count as
// matched rows.
func NewMySQLStore(dsn string) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &MySQLStore{db: db}
	if err := store.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *MySQLStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(64) PRIMARY KEY,
		user_id VARCHAR(128) NOT NULL DEFAULT '',
		remote_addr VARCHAR(64) NOT NULL DEFAULT '',
		connected_at DATETIME NULL,
		disconnected_at DATETIME NULL,
		INDEX idx_sessions_user_id (user_id),
		INDEX idx_sessions_disconnected_at (disconnected_at)
	)`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSession inserts a session row or refreshes an existing one
func (s *MySQLStore) SaveSession(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, user_id, remote_addr, connected_at, disconnected_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			user_id = VALUES(user_id),
			remote_addr = VALUES(remote_addr),
			connected_at = VALUES(connected_at),
			disconnected_at = VALUES(disconnected_at)
	`, session.ID, session.UserID, session.RemoteAddr, session.ConnectedAt, session.DisconnectedAt)

	return err
}

// SetSessionUser attaches an authenticated user id to an existing session
func (s *MySQLStore) SetSessionUser(sessionID, userID string) error {
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
func (s *MySQLStore) CloseSession(sessionID string) error {
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
func (s *MySQLStore) ActiveSessions() ([]*Session, error) {
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
func (s *MySQLStore) CountSessions() (int, int, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
