package core

import "errors"

// Error codes for session errors surfaced to callers.
const (
	ErrCodeNotConnected     = "not_connected"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeAddrInUse        = "addr_in_use"
	ErrCodeTransport        = "transport_error"
)

var (
	// ErrNotConnected means a send was requested with no active transport.
	ErrNotConnected = errors.New("not connected to any peer")
	// ErrUnknownRecipient means direct delivery targeted an identity with no
	// open connection.
	ErrUnknownRecipient = errors.New("recipient has no open connection")
)

// SessionError wraps a code and human-readable message.
type SessionError struct {
	Code    string
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}
