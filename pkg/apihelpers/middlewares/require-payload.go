package middlewares

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/vidtube/vidtube-backend/pkg/apihelpers"
)

// RequirePayload blocks post requests that have no payload attached
func RequirePayload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength == 0 {
			slog.Debug("RequirePayload Middleware: payload missing")
			apihelpers.WriteError(c, apihelpers.NewAPIError(apihelpers.KindValidation, "payload missing"))
			return
		}
		c.Next()
	}
}
