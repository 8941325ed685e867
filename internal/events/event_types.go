package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserLoggedIn   EventType = "user_logged_in"
	EventUserLoggedOut  EventType = "user_logged_out"
	EventTokensRevoked  EventType = "tokens_revoked"
)

// Event represents an authentication event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	UserID string `json:"user_id"`
}

// TokensRevokedPayload payload. Count is the number of ledger records marked
// dead; the token values themselves are never carried in events.
type TokensRevokedPayload struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
	Reason string `json:"reason"`
}
