package middleware

import (
	"strconv"
	"time"

	"QA_Community/internal/pkg"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板统计，避免 id 撑爆标签
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		pkg.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		pkg.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
