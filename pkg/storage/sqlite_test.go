package storage

import (
	goerrors "errors"
	"os"
	"testing"
	"time"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpFile := "test_storage.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Fatal("Store should not be nil")
	}
}

func TestSaveAndSetSessionUser(t *testing.T) {
	tmpFile := "test_sessions.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	session := &Session{
		ID:          "session-1",
		RemoteAddr:  "192.168.1.100:54321",
		ConnectedAt: time.Now().UTC(),
	}

	if err := store.SaveSession(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	if err := store.SetSessionUser("session-1", "trader-42"); err != nil {
		t.Fatalf("Failed to set session user: %v", err)
	}

	sessions, err := store.ActiveSessions()
	if err != nil {
		t.Fatalf("Failed to list active sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 active session, got %d", len(sessions))
	}
	if sessions[0].UserID != "trader-42" {
		t.Errorf("Expected user 'trader-42', got '%s'", sessions[0].UserID)
	}
	if sessions[0].RemoteAddr != "192.168.1.100:54321" {
		t.Errorf("Expected remote addr '192.168.1.100:54321', got '%s'", sessions[0].RemoteAddr)
	}
	if sessions[0].DisconnectedAt != nil {
		t.Error("Active session should not have a disconnect time")
	}
}

func TestCloseSession(t *testing.T) {
	tmpFile := "test_close_session.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	session := &Session{
		ID:          "session-1",
		RemoteAddr:  "10.0.0.1:1234",
		ConnectedAt: time.Now().UTC(),
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	if err := store.CloseSession("session-1"); err != nil {
		t.Fatalf("Failed to close session: %v", err)
	}

	sessions, err := store.ActiveSessions()
	if err != nil {
		t.Fatalf("Failed to list active sessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected 0 active sessions after close, got %d", len(sessions))
	}
}

func TestActiveSessionsOrder(t *testing.T) {
	tmpFile := "test_active_order.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"session-a", "session-b", "session-c"} {
		session := &Session{
			ID:          id,
			RemoteAddr:  "10.0.0.1:1234",
			ConnectedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveSession(session); err != nil {
			t.Fatalf("Failed to save session %s: %v", id, err)
		}
	}

	sessions, err := store.ActiveSessions()
	if err != nil {
		t.Fatalf("Failed to list active sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 active sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "session-c" {
		t.Errorf("Expected newest session first, got '%s'", sessions[0].ID)
	}
}

func TestCountSessions(t *testing.T) {
	tmpFile := "test_count_sessions.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	for _, id := range []string{"session-1", "session-2", "session-3"} {
		session := &Session{
			ID:          id,
			RemoteAddr:  "10.0.0.1:1234",
			ConnectedAt: time.Now().UTC(),
		}
		if err := store.SaveSession(session); err != nil {
			t.Fatalf("Failed to save session %s: %v", id, err)
		}
	}
	if err := store.CloseSession("session-2"); err != nil {
		t.Fatalf("Failed to close session: %v", err)
	}

	total, active, err := store.CountSessions()
	if err != nil {
		t.Fatalf("Failed to count sessions: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 total sessions, got %d", total)
	}
	if active != 2 {
		t.Errorf("Expected 2 active sessions, got %d", active)
	}
}

func TestSessionNotFound(t *testing.T) {
	tmpFile := "test_session_not_found.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if err := store.SetSessionUser("missing", "trader-1"); !goerrors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("SetSessionUser error = %v, want ErrSessionNotFound", err)
	}
	if err := store.CloseSession("missing"); !goerrors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("CloseSession error = %v, want ErrSessionNotFound", err)
	}
}

func TestSaveSessionUpsert(t *testing.T) {
	tmpFile := "test_session_upsert.db"
	defer os.Remove(tmpFile)

	store, err := NewSQLiteStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	session := &Session{
		ID:          "session-1",
		RemoteAddr:  "10.0.0.1:1234",
		ConnectedAt: time.Now().UTC(),
	}
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	session.RemoteAddr = "10.0.0.2:5678"
	if err := store.SaveSession(session); err != nil {
		t.Fatalf("Failed to re-save session: %v", err)
	}

	total, _, err := store.CountSessions()
	if err != nil {
		t.Fatalf("Failed to count sessions: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 session after upsert, got %d", total)
	}

	sessions, err := store.ActiveSessions()
	if err != nil {
		t.Fatalf("Failed to list active sessions: %v", err)
	}
	if sessions[0].RemoteAddr != "10.0.0.2:5678" {
		t.Errorf("Expected updated remote addr, got '%s'", sessions[0].RemoteAddr)
	}
}
