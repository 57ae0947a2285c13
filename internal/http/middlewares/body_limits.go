package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}

// RequireForm rejects mutation requests that are not form posts; every
// mutating route on the console is an HTML form submission.
func RequireForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") &&
				!strings.HasPrefix(ct, "multipart/form-data") {
				c.String(http.StatusUnsupportedMediaType, "Content-Type must be a form submission")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
