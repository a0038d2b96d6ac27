// File: internal/identity/repository.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the credential store contract. Uniqueness of email and of
// present federated IDs is enforced by the store's own constraints, so two
// concurrent Create calls for the same address cannot both succeed.
type Repository interface {
	Create(ctx context.Context, ident *Identity) error
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*Identity, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGORMRepository creates a new GORM identity repository.
func NewGORMRepository(db *gorm.DB, cfg *config.Config) Repository {
	return &gormRepository{db: db, timeout: cfg.StoreTimeout}
}

// Migrate creates the identities table and its indexes, including the
// partial unique index on federated_id.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Identity{})
}

func (r *gormRepository) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts a new identity record. Duplicate-key violations are mapped
// onto the error taxonomy by the constraint that fired.
func (r *gormRepository) Create(ctx context.Context, ident *Identity) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	ident.Email = NormalizeEmail(ident.Email)
	err := r.db.WithContext(ctx).Create(ident).Error
	if err != nil {
		if isDuplicateKey(err) {
			if mentionsFederatedConstraint(err) {
				return common.ErrDuplicateFederatedID
			}
			return common.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// FindByEmail retrieves an identity by its normalized email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var ident Identity
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}
	return &ident, nil
}

// FindByFederatedID retrieves an identity by its provider subject identifier.
func (r *gormRepository) FindByFederatedID(ctx context.Context, federatedID string) (*Identity, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var ident Identity
	err := r.db.WithContext(ctx).Where("federated_id = ?", federatedID).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find identity by federated id: %w", err)
	}
	return &ident, nil
}

// FindByID retrieves an identity by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var ident Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find identity by id: %w", err)
	}
	return &ident, nil
}

// TouchLastLogin refreshes the last-login timestamp of an identity.
func (r *gormRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	err := r.db.WithContext(ctx).Model(&Identity{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	return nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "unique constraint") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mentionsFederatedConstraint distinguishes which unique index fired. Both
// the postgres constraint name and sqlite's column-qualified message carry
// the federated_id name.
func mentionsFederatedConstraint(err error) bool {
	return strings.Contains(err.Error(), "federated_id")
}
