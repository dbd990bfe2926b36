package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AryanManu544/Presenze/pkg/metrics"
)

// Metrics 请求计数与耗时（Prometheus）
// 以路由模板而非原始路径作为标签，避免 :id 等参数导致标签基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
