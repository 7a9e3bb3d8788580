package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arqmanager/portfolio-web/internal/logger"
)

const (
	HeaderRequestID = "X-Request-Id"
	maxRequestIDLen = 64
)

// RequestIDMiddleware tags each request with an ID, taken from X-Request-Id
// when the caller sent a usable one. The ID is echoed back, forwarded to the
// catalog backend through the request context, and written on the access line.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if !validRequestID(rid) {
			rid = newRequestID()
		}

		c.Set("request_id", rid)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), rid))
		c.Header(HeaderRequestID, rid)

		start := time.Now()
		c.Next()

		logger.New(c.Request.Context()).LogInfof("http",
			"method=%s path=%s status=%d latency=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// validRequestID accepts short IDs made of URL-safe characters, so the value
// can be logged and forwarded verbatim.
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for _, r := range rid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return time.Now().UTC().Format("20060102T150405.000000000")
	}
	return hex.EncodeToString(b)
}
