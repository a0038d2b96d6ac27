// File: internal/identity/service.go
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// dummyHash is a bcrypt hash of a random string nobody knows. Login runs a
// compare against it when the account does not exist or has no password, so
// the failure path costs the same whether or not the email is registered.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ServiceImplementation implements shared.Service on top of the credential
// store. It is both authenticators: Register/Login cover the local
// email+password method, ResolveOrCreateFederated covers the OAuth one.
type ServiceImplementation struct {
	repo   Repository
	cfg    *config.Config
	logger *zap.Logger
}

var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new identity service.
func NewService(repo Repository, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{repo: repo, cfg: cfg, logger: logger}
}

// Register creates a local identity from name, email and password.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.RegisterRequest) (*shared.User, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)

	details := map[string]string{}
	if name == "" {
		details["name"] = "The name field is required."
	}
	if email == "" {
		details["email"] = "The email field is required."
	}
	if len(req.Password) < MinPasswordLength {
		details["password"] = "The password field must be at least 6 characters long."
	}
	if len(details) > 0 {
		return nil, common.ErrValidation.WithDetails(details)
	}

	hash, err := common.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", zap.Error(err))
		return nil, common.ErrInternalServer
	}

	ident := NewLocal(name, email, hash)

	// No pre-insert existence check: the store's unique constraint is the
	// single arbiter, so two concurrent signups for one address cannot race
	// past an application-level lookup.
	if err := s.repo.Create(ctx, ident); err != nil {
		return nil, s.storeError(err, "Failed to create local identity", zap.String("email", email))
	}

	s.logger.Info("Local identity registered", zap.String("identityID", ident.ID.String()))
	return ident.ToShared(), nil
}

// Login verifies an email+password pair against the store.
func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*shared.User, error) {
	ident, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.CheckPasswordHash(password, dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.storeError(err, "Failed to look up identity during login")
	}

	if !ident.IsLocal() || ident.PasswordHash == nil {
		// Federated account; burn the same hashing cost and answer exactly
		// as for a wrong password so the method is not discoverable.
		common.CheckPasswordHash(password, dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	if !common.CheckPasswordHash(password, *ident.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, ident.ID); err != nil {
		// Not worth failing an otherwise valid login over.
		s.logger.Error("Failed to refresh last login time", zap.Error(err), zap.String("identityID", ident.ID.String()))
	}

	s.logger.Info("Local identity logged in", zap.String("identityID", ident.ID.String()))
	return ident.ToShared(), nil
}

// ResolveOrCreateFederated exchanges a verified provider assertion for a
// local identity record, creating one on first sight.
func (s *ServiceImplementation) ResolveOrCreateFederated(ctx context.Context, assertion shared.ProviderAssertion) (*shared.User, error) {
	if assertion.SubjectID == "" || NormalizeEmail(assertion.Email) == "" {
		return nil, common.ErrValidation.WithDetails("Provider assertion is missing subject or email.")
	}

	ident, err := s.repo.FindByFederatedID(ctx, assertion.SubjectID)
	if err == nil {
		if err := s.repo.TouchLastLogin(ctx, ident.ID); err != nil {
			s.logger.Error("Failed to refresh last login time", zap.Error(err), zap.String("identityID", ident.ID.String()))
		}
		s.logger.Info("Federated identity resolved", zap.String("identityID", ident.ID.String()))
		return ident.ToShared(), nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, s.storeError(err, "Failed to look up federated identity", zap.String("subject", assertion.SubjectID))
	}

	// First sight of this subject. A password-based account already owning
	// the email must not be silently annexed by federation.
	existing, err := s.repo.FindByEmail(ctx, assertion.Email)
	if err == nil {
		if existing.IsLocal() {
			return nil, common.ErrEmailOwnedByLocalAccount
		}
		// Same email, different federated subject. Creating would trip the
		// email constraint anyway; answer without the round trip.
		return nil, common.ErrDuplicateEmail
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, s.storeError(err, "Failed to look up identity by email", zap.String("subject", assertion.SubjectID))
	}

	ident = NewFederated(assertion)
	if err := s.repo.Create(ctx, ident); err != nil {
		// A concurrent callback for the same subject may have won the
		// insert; resolving to that record keeps the operation idempotent.
		if errors.Is(err, common.ErrDuplicateFederatedID) {
			if winner, lookupErr := s.repo.FindByFederatedID(ctx, assertion.SubjectID); lookupErr == nil {
				return winner.ToShared(), nil
			}
		}
		return nil, s.storeError(err, "Failed to create federated identity", zap.String("subject", assertion.SubjectID))
	}

	s.logger.Info("New federated identity created", zap.String("identityID", ident.ID.String()))
	return ident.ToShared(), nil
}

// GetUserByID loads the client view of an identity.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	ident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, s.storeError(err, "Failed to load identity by ID", zap.String("identityID", id.String()))
	}
	return ident.ToShared(), nil
}

// storeError passes taxonomy errors through untouched and collapses
// anything else (driver faults, timeouts) into the store-unavailable error
// after logging the underlying cause.
func (s *ServiceImplementation) storeError(err error, msg string, fields ...zap.Field) error {
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
	return common.ErrStoreUnavailable
}
