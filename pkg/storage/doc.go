// Package storage provides persistent session storage for the gateway.
//
// Every accepted WebSocket connection is recorded as a session row: who
// connected, from where, when, and when the socket went away. The primary
// implementation uses SQLite for reliability and simplicity; a MySQL
// backend is available for deployments that already run a database server.
//
// Usage:
//
//	store, err := storage.NewSQLiteStore("./gateway.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Record a new connection
//	err = store.SaveSession(&storage.Session{ID: connID, ...})
//
//	// List connections that are still open
//	sessions, err := store.ActiveSessions()
//
// The Store interface allows for alternative backends while maintaining
// API compatibility.
package storage
