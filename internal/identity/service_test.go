package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

func setupService(t *testing.T) *ServiceImplementation {
	t.Helper()
	repo := setupRepository(t)
	cfg := &config.Config{
		StoreTimeout: 5 * time.Second,
		BcryptCost:   bcrypt.MinCost, // keep the hashing cheap in tests
	}
	return NewService(repo, cfg, zap.NewNop())
}

func TestRegister_CreatesLocalIdentity(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, shared.RegisterRequest{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, "asha@example.com", user.Email, "email should be stored normalized")
	assert.Equal(t, common.RoleUser, user.Role)
	assert.NotEqual(t, "", user.ID.String())
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, shared.RegisterRequest{
		Name:     "   ",
		Email:    "",
		Password: "short",
	})
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrValidation.Code, apiErr.Code)

	details, ok := apiErr.Details.(map[string]string)
	require.True(t, ok, "validation details should name the offending fields")
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestRegister_DuplicateEmailAcrossCasing(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, shared.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, shared.RegisterRequest{
		Name: "Impostor", Email: "ASHA@EXAMPLE.COM", Password: "different1",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, shared.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	loggedIn, err := svc.Login(ctx, "Asha@Example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
}

func TestLogin_AllFailureModesLookAlike(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, shared.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ResolveOrCreateFederated(ctx, shared.ProviderAssertion{
		SubjectID: "google-sub-1", Email: "fed@example.com", Name: "Fed",
	})
	require.NoError(t, err)

	// Unknown email, wrong password, and a federated-only account must be
	// indistinguishable to the caller.
	cases := map[string]struct {
		email    string
		password string
	}{
		"unknown email":          {"nobody@example.com", "secret123"},
		"wrong password":         {"asha@example.com", "not-the-password"},
		"federated-only account": {"fed@example.com", "secret123"},
	}
	for name, tc := range cases {
		_, err := svc.Login(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, common.ErrInvalidCredentials, name)
	}
}

func TestResolveOrCreateFederated_IsIdempotent(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	assertion := shared.ProviderAssertion{
		SubjectID: "google-sub-1",
		Email:     "ravi@example.com",
		Name:      "Ravi",
		AvatarURL: "https://example.com/ravi.png",
	}

	first, err := svc.ResolveOrCreateFederated(ctx, assertion)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", first.Email)
	assert.Equal(t, "https://example.com/ravi.png", first.Avatar)

	second, err := svc.ResolveOrCreateFederated(ctx, assertion)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat callbacks must resolve, not duplicate")
}

func TestResolveOrCreateFederated_RefusesLocalEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, shared.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ResolveOrCreateFederated(ctx, shared.ProviderAssertion{
		SubjectID: "google-sub-1", Email: "asha@example.com", Name: "Asha G",
	})
	assert.ErrorIs(t, err, common.ErrEmailOwnedByLocalAccount)
}

func TestResolveOrCreateFederated_RejectsEmailOfOtherSubject(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.ResolveOrCreateFederated(ctx, shared.ProviderAssertion{
		SubjectID: "google-sub-1", Email: "ravi@example.com", Name: "Ravi",
	})
	require.NoError(t, err)

	_, err = svc.ResolveOrCreateFederated(ctx, shared.ProviderAssertion{
		SubjectID: "google-sub-2", Email: "ravi@example.com", Name: "Someone Else",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestGetUserByID(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, shared.RegisterRequest{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Email, user.Email)
}
