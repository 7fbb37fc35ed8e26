package auth

import "sync"

// SessionEvent signals a login or logout of a user
type SessionEvent struct {
	UserID   int64
	LoggedIn bool
}

// SessionEvents is an explicit subscriber registry for auth state
// changes. It is constructed by and owned by the identity layer's
// session manager and torn down with it, never held as process-wide
// mutable state.
type SessionEvents struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(SessionEvent)
	closed    bool
}

func NewSessionEvents() *SessionEvents {
	return &SessionEvents{listeners: make(map[int]func(SessionEvent))}
}

// Subscribe registers a listener and returns its unsubscribe function
func (e *SessionEvents) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	if !e.closed {
		e.listeners[id] = fn
	}

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Publish delivers an event to all current listeners
func (e *SessionEvents) Publish(ev SessionEvent) {
	e.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close drops all listeners; further subscriptions are ignored
func (e *SessionEvents) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.listeners = make(map[int]func(SessionEvent))
}
