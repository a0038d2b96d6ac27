// File: internal/identity/model.go
package identity

import (
	"strings"
	"time"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

// AuthMethod values. Fixed at creation, never changed afterwards.
const (
	AuthMethodLocal     = "local"
	AuthMethodFederated = "federated"
)

// Identity is the single account record shared by both authentication
// methods. Exactly one of PasswordHash / FederatedID is set, determined by
// AuthMethod: the two constructors below are the only supported ways to
// build one, so a well-formed Identity cannot carry both payloads.
//
// FederatedID carries a partial unique index: uniqueness applies only to
// rows where the column is non-NULL, so any number of local identities may
// coexist with the field absent. A plain unique index would treat every
// local signup after the first as a collision.
type Identity struct {
	common.BaseModel
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_email"`
	DisplayName  string  `gorm:"type:varchar(255);not null"`
	AvatarURL    *string `gorm:"type:text"`
	Role         string  `gorm:"type:varchar(50);not null;default:'user'"`
	AuthMethod   string  `gorm:"type:varchar(50);not null"`
	FederatedID  *string `gorm:"type:varchar(255);uniqueIndex:idx_identities_federated_id,where:federated_id IS NOT NULL"`
	PasswordHash *string `gorm:"type:varchar(255)"`
	IsVerified   bool    `gorm:"not null;default:false"`
	LastLoginAt  time.Time
}

// TableName specifies the table name for the Identity model.
func (Identity) TableName() string {
	return "identities"
}

// NormalizeEmail lowercases and trims an email address. All store lookups
// and uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewLocal builds a password-based identity. The caller supplies an already
// computed hash; plaintext never reaches this package.
func NewLocal(displayName, email, passwordHash string) *Identity {
	now := time.Now()
	return &Identity{
		Email:        NormalizeEmail(email),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         common.RoleUser,
		AuthMethod:   AuthMethodLocal,
		PasswordHash: &passwordHash,
		IsVerified:   false,
		LastLoginAt:  now,
	}
}

// NewFederated builds an identity from a verified provider assertion.
// Federated identities are verified by construction.
func NewFederated(assertion shared.ProviderAssertion) *Identity {
	now := time.Now()
	subject := assertion.SubjectID
	ident := &Identity{
		Email:       NormalizeEmail(assertion.Email),
		DisplayName: strings.TrimSpace(assertion.Name),
		Role:        common.RoleUser,
		AuthMethod:  AuthMethodFederated,
		FederatedID: &subject,
		IsVerified:  true,
		LastLoginAt: now,
	}
	if assertion.AvatarURL != "" {
		avatar := assertion.AvatarURL
		ident.AvatarURL = &avatar
	}
	return ident
}

// IsLocal reports whether the identity authenticates with a password.
func (i *Identity) IsLocal() bool {
	return i.AuthMethod == AuthMethodLocal
}

// ToShared converts the stored record to its client-safe view.
func (i *Identity) ToShared() *shared.User {
	if i == nil {
		return nil
	}
	u := &shared.User{
		ID:    i.ID,
		Name:  i.DisplayName,
		Email: i.Email,
		Role:  i.Role,
	}
	if i.AvatarURL != nil {
		u.Avatar = *i.AvatarURL
	}
	return u
}
