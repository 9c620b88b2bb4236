package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
)

// SizeLimitConfig represents size limit configuration
type SizeLimitConfig struct {
	MaxBodySize   int64 // in bytes
	MaxUploadSize int64 // in bytes, for multipart uploads
	MaxHeaderSize int   // in bytes
	// UploadSuffixes marks paths that accept MaxUploadSize bodies.
	UploadSuffixes []string
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:    1 << 20,  // 1MB
		MaxUploadSize:  10 << 20, // 10MB
		MaxHeaderSize:  1 << 14,  // 16KB
		UploadSuffixes: []string{"/media"},
	}
}

// SizeLimit rejects oversized requests and caps the body reader so a
// missing or false Content-Length cannot get past the limit.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.MaxBodySize
		for _, suffix := range config.UploadSuffixes {
			if strings.HasSuffix(c.Request.URL.Path, suffix) {
				limit = config.MaxUploadSize
				break
			}
		}

		if c.Request.ContentLength > limit {
			httputil.AbortWithError(c, tooLarge(fmt.Sprintf("body size exceeds %d bytes", limit)))
			return
		}

		headerSize := 0
		for name, values := range c.Request.Header {
			headerSize += len(name)
			for _, value := range values {
				headerSize += len(value)
			}
		}
		if headerSize > config.MaxHeaderSize {
			httputil.AbortWithError(c, tooLarge(fmt.Sprintf("header size exceeds %d bytes", config.MaxHeaderSize)))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func tooLarge(msg string) *apperrors.AppError {
	return &apperrors.AppError{Code: http.StatusRequestEntityTooLarge, Message: "request too large: " + msg}
}
