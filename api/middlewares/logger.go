package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/batchupload/tool"
)

// RequestLogger logs method, path and request time of every request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		tool.DefaultLogger.Infof("[Server] %s %s %s status=%d latency=%s",
			c.Request.Method, c.Request.URL.Path, start.UTC().Format(time.RFC3339), c.Writer.Status(), time.Since(start))
	}
}
