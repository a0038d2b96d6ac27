package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RachitSrivastava96/virasat-setu/internal/common"
	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/session"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

type fixedUserService struct {
	user *shared.User
}

func (s *fixedUserService) Register(ctx context.Context, req shared.RegisterRequest) (*shared.User, error) {
	return nil, common.ErrInternalServer
}

func (s *fixedUserService) Login(ctx context.Context, email, password string) (*shared.User, error) {
	return nil, common.ErrInvalidCredentials
}

func (s *fixedUserService) ResolveOrCreateFederated(ctx context.Context, assertion shared.ProviderAssertion) (*shared.User, error) {
	return nil, common.ErrInternalServer
}

func (s *fixedUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, common.ErrNotFound
}

func setupRouter(t *testing.T) (*gin.Engine, *session.Gateway, *shared.User, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	user := &shared.User{ID: uuid.New(), Name: "Asha", Email: "asha@example.com", Role: common.RoleUser}
	cfg := &config.Config{
		SessionCookieName: "vs_session",
		SessionTTL:        time.Hour,
		StoreTimeout:      5 * time.Second,
	}
	gateway := session.NewGateway(session.NewRedisStore(client), &fixedUserService{user: user}, cfg, zap.NewNop())

	router := gin.New()
	router.Use(SessionResolver(gateway, cfg, zap.NewNop()))
	router.GET("/whoami", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": common.GetCurrentUserIDFromContext(c).String()})
	})
	return router, gateway, user, cfg
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	router, _, _, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RejectsUnknownToken(t *testing.T) {
	router, _, _, cfg := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: "never-issued"})
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionResolver_PopulatesCurrentUser(t *testing.T) {
	router, gateway, user, cfg := setupRouter(t)

	token, _, err := gateway.Establish(context.Background(), user.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cfg.SessionCookieName, Value: token})
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
}
