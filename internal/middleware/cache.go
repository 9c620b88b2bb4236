package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig controls Cache-Control on API responses.
type CacheConfig struct {
	// PublicPrefixes are anonymous catalogue reads browsers and CDNs may cache.
	PublicPrefixes       []string
	MaxAge               int
	StaleWhileRevalidate int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		PublicPrefixes:       []string{"/api/providers"},
		MaxAge:               30,
		StaleWhileRevalidate: 300,
	}
}

// Cache marks public catalogue reads cacheable and everything else no-store.
// Responses that vary by caller never become public.
func Cache(config CacheConfig) gin.HandlerFunc {
	public := "public, max-age=" + strconv.Itoa(config.MaxAge)
	if config.StaleWhileRevalidate > 0 {
		public += ", stale-while-revalidate=" + strconv.Itoa(config.StaleWhileRevalidate)
	}

	return func(c *gin.Context) {
		if c.Request.Method == "GET" && c.GetHeader("Authorization") == "" && hasAnyPrefix(c.Request.URL.Path, config.PublicPrefixes) {
			c.Header("Cache-Control", public)
		} else {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	}
}

func hasAnyPrefix(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
