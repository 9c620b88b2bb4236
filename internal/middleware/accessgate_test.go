package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func gatedRouter(code string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AccessGate(code))
	r.NoRoute(func(c *gin.Context) { c.String(http.StatusOK, "page") })
	return r
}

func TestAccessGate_RedirectsWithoutCookie(t *testing.T) {
	r := gatedRouter("letmein")

	for _, target := range []string{"/", "/providers/123", "/bookings?tab=upcoming"} {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusFound, w.Code)
			loc, err := w.Result().Location()
			assert.NoError(t, err)
			assert.Equal(t, "/unlock", loc.Path)
			assert.Equal(t, target, loc.Query().Get("redirect"))
		})
	}
}

func TestAccessGate_PassesWithCookie(t *testing.T) {
	r := gatedRouter("letmein")

	req := httptest.NewRequest(http.MethodGet, "/providers/123", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: AccessCookieValue})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", w.Body.String())
}

func TestAccessGate_WrongCookieValue(t *testing.T) {
	r := gatedRouter("letmein")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "false"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAccessGate_Bypass(t *testing.T) {
	r := gatedRouter("letmein")

	paths := []string{
		"/_next/static/chunks/main.js",
		"/static/logo.png",
		"/assets/app.css",
		"/favicon.ico",
		"/images/hero.webp",
		"/unlock",
		"/unlock?redirect=%2F",
		"/api/providers",
		"/api/access-code",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestAccessGate_DisabledWithoutCode(t *testing.T) {
	r := gatedRouter("")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
