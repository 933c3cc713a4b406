package api

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into the generic 500 reply.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		apiLog.WithField("request_id", requestid.Get(c)).Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"reply": genericFailure})
	})
}
