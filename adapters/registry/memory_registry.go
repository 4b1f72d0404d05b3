// Package registry tracks live real-time sessions in process memory.
package registry

import (
	"sync"
	"time"

	"github.com/walletgate/walletgate/core"
	"github.com/walletgate/walletgate/ports"
)

// MessageSink is a session's outbound transport. Writes for one
// session are never issued concurrently by the registry.
type MessageSink interface {
	Send(msg core.ServerMessage) error
}

type liveSession struct {
	session core.Session
	sink    MessageSink

	// Serializes writes to the sink so pushes stay FIFO per session.
	writeMu sync.Mutex
}

// MemoryRegistry is an in-memory implementation of
// ports.SessionRegistry with explicit lifecycle: Add on connect,
// Remove on disconnect.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
}

var _ ports.SessionRegistry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates a new in-memory session registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]*liveSession),
	}
}

// Add registers a new live session bound to its challenge and
// transport sink.
func (r *MemoryRegistry) Add(sessionID, challenge string, sink MessageSink) core.Session {
	session := core.Session{
		ID:        sessionID,
		Challenge: challenge,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.sessions[sessionID] = &liveSession{session: session, sink: sink}
	r.mu.Unlock()

	return session
}

// Remove drops a session. Pushes after removal are no-ops.
func (r *MemoryRegistry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Get returns the live session for id.
func (r *MemoryRegistry) Get(sessionID string) (core.Session, bool) {
	r.mu.RLock()
	ls, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return core.Session{}, false
	}
	return ls.session, true
}

// Push delivers msg to the session's transport. Delivery is at most
// once: if the session is gone or the transport write fails, the
// message is dropped.
func (r *MemoryRegistry) Push(sessionID string, msg core.ServerMessage) {
	r.mu.RLock()
	ls, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	ls.writeMu.Lock()
	defer ls.writeMu.Unlock()
	_ = ls.sink.Send(msg)
}

// Len returns the number of live sessions.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
