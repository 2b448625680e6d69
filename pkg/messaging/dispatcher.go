package messaging

import (
	"fmt"
	"sync"

	"github.com/akramahmed1/quantenergx-gateway/pkg/errors"
	"github.com/akramahmed1/quantenergx-gateway/pkg/logger"
	"github.com/akramahmed1/quantenergx-gateway/pkg/protocol"
)

// DispatcherImpl implements the Dispatcher interface
type DispatcherImpl struct {
	handlers map[string]Handler
	mu       sync.RWMutex
	log      *logger.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log *logger.Logger) *DispatcherImpl {
	return &DispatcherImpl{
		handlers: make(map[string]Handler),
		log:      log.Component("dispatcher"),
	}
}

// Register registers a handler for an event
func (d *DispatcherImpl) Register(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	event := handler.Event()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[event]; exists {
		return fmt.Errorf("handler already registered for event: %s", event)
	}

	d.handlers[event] = handler
	d.log.DebugWith("registered handler", "event", event)
	return nil
}

// Dispatch dispatches a message to the appropriate handler
func (d *DispatcherImpl) Dispatch(conn Conn, msg *protocol.Message) error {
	d.mu.RLock()
	handler, exists := d.handlers[msg.Event]
	d.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrUnknownEvent, msg.Event)
	}

	return handler.Handle(conn, msg)
}

// HasHandler checks if a handler exists for the event
func (d *DispatcherImpl) HasHandler(event string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.handlers[event]
	return exists
}
