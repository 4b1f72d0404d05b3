package core

import "time"

// Session is a live real-time connection awaiting (or past) its
// wallet handshake. The challenge is bound 1:1 to the connection at
// establishment time and never rotated in place; a reconnect gets a
// fresh session with a fresh challenge.
type Session struct {
	ID        string    // Unique per live connection
	Challenge string    // Unpredictable value the client must sign
	CreatedAt time.Time // When the connection was established
}
