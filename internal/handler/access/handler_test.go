package access

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(code string, secure bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(code, secure).RegisterRoutes(r)
	return r
}

func submit(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/access-code", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitCode_Correct(t *testing.T) {
	w := submit(newRouter("letmein", false), `{"code":"letmein"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	cookie := w.Header().Get("Set-Cookie")
	require.NotEmpty(t, cookie)
	assert.Contains(t, cookie, "page_access_granted=true")
	assert.Contains(t, cookie, "Path=/")
	assert.Contains(t, cookie, "Max-Age=2592000")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=Lax")
	assert.NotContains(t, cookie, "Secure")
}

func TestSubmitCode_SecureInProduction(t *testing.T) {
	w := submit(newRouter("letmein", true), `{"code":"letmein"}`)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Secure")
}

func TestSubmitCode_Wrong(t *testing.T) {
	r := newRouter("letmein", false)

	for _, body := range []string{`{"code":"nope"}`, `{}`, `not json`} {
		w := submit(r, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Invalid access code"}`, w.Body.String())
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	}
}

func TestSubmitCode_PaddedCodeIsRejected(t *testing.T) {
	r := newRouter("letmein", false)

	for _, body := range []string{`{"code":"  letmein\n"}`, `{"code":" letmein"}`, `{"code":"letmein "}`} {
		w := submit(r, body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		assert.Empty(t, w.Header().Get("Set-Cookie"), body)
	}
}

func TestSubmitCode_GateDisabled(t *testing.T) {
	w := submit(newRouter("", false), `{"code":"anything"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestUnlockPage_KeepsLocalRedirectOnly(t *testing.T) {
	r := newRouter("letmein", false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unlock?redirect=%2Fbookings%3Ftab%3D1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-redirect="/bookings?tab=1"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unlock?redirect=https%3A%2F%2Fevil.example", nil))
	assert.Contains(t, w.Body.String(), `data-redirect="/"`)
}
