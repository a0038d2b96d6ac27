// File: internal/session/gateway.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/platform/crypto"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenBytes is the entropy of a session token: 32 bytes, 256 bits.
const tokenBytes = 32

// Gateway owns the session lifecycle. A browser session moves through
// anonymous -> authenticated -> revoked or expired -> anonymous; every
// request passes through Resolve exactly once at the boundary, and an
// invalid session is an answer ("anonymous"), never a failure.
type Gateway struct {
	store   Store
	users   shared.Service
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewGateway creates a session gateway over the given store.
func NewGateway(store Store, users shared.Service, cfg *config.Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		store:   store,
		users:   users,
		ttl:     cfg.SessionTTL,
		timeout: cfg.StoreTimeout,
		logger:  logger,
	}
}

func (g *Gateway) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// Establish creates a new server-side session bound to the identity and
// returns its opaque token with the absolute expiry.
func (g *Gateway) Establish(ctx context.Context, identityID uuid.UUID) (string, time.Time, error) {
	token, err := crypto.GenerateSecureRandomString(tokenBytes)
	if err != nil {
		g.logger.Error("Failed to generate session token", zap.Error(err))
		return "", time.Time{}, common.ErrInternalServer
	}

	expiresAt := time.Now().Add(g.ttl)

	ctx, cancel := g.bounded(ctx)
	defer cancel()

	err = g.store.Create(ctx, Session{
		Token:      token,
		IdentityID: identityID,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		return "", time.Time{}, g.sessionStoreError(err, "Failed to persist session")
	}

	return token, expiresAt, nil
}

// Resolve maps a session token back to its identity. An empty, unknown or
// expired token resolves to (nil, nil): anonymous. Credentials are not
// re-checked here; the session is the proof.
func (g *Gateway) Resolve(ctx context.Context, token string) (*shared.User, error) {
	if token == "" {
		return nil, nil
	}

	storeCtx, cancel := g.bounded(ctx)
	defer cancel()

	sess, err := g.store.Get(storeCtx, token)
	if err != nil {
		return nil, g.sessionStoreError(err, "Failed to load session")
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired() {
		// Redis TTL normally reaps these; guard anyway so a stale record
		// can never authenticate.
		_ = g.store.Delete(storeCtx, token)
		return nil, nil
	}

	user, err := g.users.GetUserByID(ctx, sess.IdentityID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Session outlived its identity; treat as anonymous.
			_ = g.store.Delete(storeCtx, token)
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

// Revoke destroys a session. Revoking an unknown or already-revoked token
// is not an error.
func (g *Gateway) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	ctx, cancel := g.bounded(ctx)
	defer cancel()

	if err := g.store.Delete(ctx, token); err != nil {
		return g.sessionStoreError(err, "Failed to delete session")
	}
	return nil
}

func (g *Gateway) sessionStoreError(err error, msg string) error {
	g.logger.Error(msg, zap.Error(err))
	return common.ErrSessionStoreUnavailable
}
