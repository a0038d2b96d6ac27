// File: internal/shared/core.go
package shared

import (
	"context"

	"github.com/google/uuid"
)

// User is the client-facing view of an identity. It deliberately exposes
// only what the frontend renders; password hashes and federated subject
// identifiers never cross the boundary.
type User struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Avatar string    `json:"avatar,omitempty"`
	Role   string    `json:"role"`
}

// RegisterRequest represents a local email/password signup.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// ProviderAssertion carries the identity facts handed back by a completed
// OAuth exchange. By the time one of these exists, the provider handshake
// has already been verified; the authenticator only consumes the facts.
type ProviderAssertion struct {
	SubjectID string
	Email     string
	Name      string
	AvatarURL string
}

// Service defines the identity business logic the HTTP boundary calls.
// Local and federated authentication are two concrete operations on one
// service, not interchangeable strategy objects.
type Service interface {
	// Register creates a local identity. Fails with a validation error for
	// malformed input and with a duplicate-email error when the address is
	// taken by any identity, local or federated.
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// Login verifies email+password. Every failure mode (unknown email,
	// federated-only account, wrong password) returns the same
	// invalid-credentials error with the same timing profile.
	Login(ctx context.Context, email, password string) (*User, error)

	// ResolveOrCreateFederated exchanges a provider assertion for a local
	// identity, creating one on first sight. It refuses to annex an email
	// owned by a password-based account.
	ResolveOrCreateFederated(ctx context.Context, assertion ProviderAssertion) (*User, error)

	// GetUserByID loads the client view of an identity.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}
