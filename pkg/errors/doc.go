// Package errors provides standardized error definitions for the gateway.
// All error definitions are centralized here to ensure consistency across
// the registry, messaging, broker, and storage components.
package errors
