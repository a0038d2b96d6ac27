// File: internal/session/store.go
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record behind one opaque token: which identity
// this browser is, and until when. Nothing else is cached in it; the
// identity record itself stays in the credential store.
type Session struct {
	Token      string    `json:"-"`
	IdentityID uuid.UUID `json:"identity_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session's absolute expiry has passed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store persists sessions keyed by opaque token. Implementations must be
// safe for concurrent use from many request-handling goroutines. Get
// returns (nil, nil) for unknown tokens; absence is an answer, not an
// error. Delete is idempotent.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
