package domain

import "time"

// TokenType enumerates supported token kinds.
type TokenType string

const (
	TokenTypeBearer TokenType = "BEARER"
)

// Token is the ledger record tracking the lifecycle of an issued bearer
// token. Records are never deleted; revocation flips the flags instead.
type Token struct {
	ID        string
	Token     string
	Type      TokenType
	Expired   bool
	Revoked   bool
	UserID    string
	CreatedAt time.Time
}

// Live reports whether the token is still usable: neither expired nor
// revoked. A record failing either flag is dead.
func (t Token) Live() bool {
	return !t.Expired && !t.Revoked
}
