package security

import (
	"time"

	"github.com/google/uuid"
)

// Maker issues and verifies bearer tokens binding a request to a principal.
// The settlement core only cares that the transaction's signer equals the
// stated principal; it never inspects anything else in the token.
type Maker interface {
	// CreateToken creates a new token for a principal with a lifetime.
	CreateToken(principalID uuid.UUID, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks the token and returns its payload if valid.
	VerifyToken(token string) (*Payload, error)
}
