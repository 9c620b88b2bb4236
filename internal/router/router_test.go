package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/handler/access"
	"github.com/petify/petify-api/internal/handler/health"
	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/auth"
	"github.com/petify/petify-api/pkg/metrics"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type customerRoles struct{}

func (customerRoles) GetRole(context.Context, uuid.UUID) (model.Role, error) {
	return model.RoleCustomer, nil
}

// whoami echoes the authenticated caller.
type whoami struct{}

func (whoami) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/whoami", func(c *gin.Context) {
		caller, _ := middleware.CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID})
	})
}

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T, accessCode string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	verifier := auth.NewHMACVerifier(testSecret, "authenticated")
	r := NewRouter(Config{
		AccessCode:     accessCode,
		MapToken:       "pk.test",
		AllowedOrigins: []string{"http://localhost:3000"},
	}, middleware.NewAuthMiddleware(verifier, customerRoles{}), metrics.New("test", registry), registry)

	r.Mount(health.NewHandler(okPinger{}), access.NewHandler(accessCode, false), whoami{})
	r.Setup()
	return r.Engine()
}

func get(r http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t, "")

	assert.Equal(t, http.StatusOK, get(r, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/metrics", nil).Code)

	w := get(r, "/api/config/map", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pk.test")
}

func TestRouter_ProtectedRoutesNeedBearerToken(t *testing.T) {
	r := newTestRouter(t, "")

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/whoami", nil).Code)

	userID := uuid.New()
	token, err := auth.NewHMACVerifier(testSecret, "authenticated").Sign(userID, "a@example.com", time.Minute)
	require.NoError(t, err)

	w := get(r, "/api/whoami", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRouter_AccessGate(t *testing.T) {
	r := newTestRouter(t, "letmein")

	w := get(r, "/providers?category=grooming", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/unlock?redirect=%2Fproviders%3Fcategory%3Dgrooming", w.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, get(r, "/unlock", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/health/ready", nil).Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(t, "")

	w := get(r, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")
}

func TestRouter_Headers(t *testing.T) {
	r := newTestRouter(t, "")

	w := get(r, "/health/live", http.Header{"Origin": {"http://localhost:3000"}})
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
