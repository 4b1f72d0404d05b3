package core

// Actions pushed to a session over its transport.
const (
	ActionSessionCreated = "session-created"
	ActionAccessGranted  = "access-granted"
	ActionUnauthorized   = "unauthorized"
	ActionAccountLocked  = "account-locked"
)

// ServerMessage is a structured record pushed to a session. Only the
// fields relevant to the action are set; the rest are omitted from the
// wire encoding.
type ServerMessage struct {
	Action          string `json:"action"`
	SessionID       string `json:"sessionId,omitempty"`
	Challenge       string `json:"challenge,omitempty"`
	Address         string `json:"address,omitempty"`
	AccessToken     string `json:"accessToken,omitempty"`
	EncryptedWallet string `json:"encryptedWallet,omitempty"`
}
