package middleware

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookieName  = "page_access_granted"
	AccessCookieValue = "true"
	// AccessCookieMaxAge is thirty days in seconds.
	AccessCookieMaxAge = 30 * 24 * 60 * 60

	UnlockPath = "/unlock"
)

var (
	gateBypassPrefixes = []string{"/_next/", "/static/", "/assets/", "/api/", "/health/"}
	gateBypassPaths    = map[string]bool{"/favicon.ico": true, "/metrics": true, "/health": true}
	staticExtensions   = map[string]bool{
		".css": true, ".js": true, ".map": true, ".png": true, ".jpg": true, ".jpeg": true,
		".gif": true, ".svg": true, ".webp": true, ".ico": true, ".woff": true, ".woff2": true,
		".ttf": true, ".txt": true, ".xml": true, ".webmanifest": true,
	}
)

// AccessGate hides the site behind a shared access code until launch. With
// no code configured it passes every request.
func AccessGate(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if code == "" || gateBypassed(c.Request.URL.Path) {
			c.Next()
			return
		}

		if v, err := c.Cookie(AccessCookieName); err == nil && v == AccessCookieValue {
			c.Next()
			return
		}

		c.Redirect(http.StatusFound, UnlockPath+"?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func gateBypassed(p string) bool {
	if p == UnlockPath || strings.HasPrefix(p, UnlockPath+"/") || gateBypassPaths[p] {
		return true
	}
	for _, prefix := range gateBypassPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}
