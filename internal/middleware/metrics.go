package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"DriverOnboard/pkg/metrics"
)

var requestMetrics *metrics.HTTPMetrics

// MetricsMiddleware 按路由模板统计请求数和耗时
func MetricsMiddleware() app.HandlerFunc {
	return metricsWith(requestMetrics)
}

func metricsWith(m *metrics.HTTPMetrics) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if m == nil {
			c.Next(ctx)
			return
		}

		start := time.Now()
		c.Next(ctx)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := string(c.Method())

		m.Duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(method, path, strconv.Itoa(c.Response.StatusCode())).Inc()
	}
}
