package ports

import "github.com/walletgate/walletgate/core"

// SessionRegistry tracks live real-time connections. Sessions are
// inserted on connect and removed on disconnect; the handshake only
// reads and pushes through this interface.
type SessionRegistry interface {
	// Get returns the live session for id. It never blocks.
	Get(sessionID string) (core.Session, bool)

	// Push delivers msg to the session's transport, best effort. If
	// the session no longer exists this is a no-op. Pushes to the same
	// session are delivered in the order issued.
	Push(sessionID string, msg core.ServerMessage)
}
