package errors

import "errors"

// Authentication and authorization errors
var (
	// ErrAuthFailed is returned when authenticate credentials are missing
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotAuthenticated is returned when a subscription is attempted
	// before authenticate succeeds
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUserMismatch is returned when a subscription targets another
	// user's room
	ErrUserMismatch = errors.New("user does not match subscription")
)

// Connection registry errors
var (
	// ErrConnectionNotFound is returned when a connection ID is unknown
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConnectionClosed is returned when sending on a closed connection
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when a connection's send buffer is full
	// and the message was dropped
	ErrSendBufferFull = errors.New("send buffer full")
)

// Message and dispatch errors
var (
	// ErrInvalidMessage is returned when a message cannot be decoded
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnknownEvent is returned when no handler is registered for an event
	ErrUnknownEvent = errors.New("unknown event")
)

// Broker errors
var (
	// ErrBrokerNotConfigured is returned when a broker operation is
	// attempted without a configured client
	ErrBrokerNotConfigured = errors.New("broker not configured")

	// ErrBrokerConnection is returned when the broker connection fails
	ErrBrokerConnection = errors.New("broker connection failed")
)

// Storage errors
var (
	// ErrStorageNotInitialized is returned when storage is not initialized
	ErrStorageNotInitialized = errors.New("storage not initialized")

	// ErrDatabaseConnection is returned when database connection fails
	ErrDatabaseConnection = errors.New("database connection failed")

	// ErrSessionNotFound is returned when a session ID is unknown
	ErrSessionNotFound = errors.New("session not found")
)

// Configuration errors
var (
	// ErrConfigNotFound is returned when configuration file is not found
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)
