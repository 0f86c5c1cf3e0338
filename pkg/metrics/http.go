package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics 开发后端的请求指标
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) (*HTTPMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devserver_http_requests_total",
		Help: "HTTP requests handled by the development backend",
	}, []string{"method", "path", "status"})
	requests, err := registerCounterVec(reg, requests)
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devserver_http_request_duration_seconds",
		Help:    "HTTP request latency of the development backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &HTTPMetrics{Requests: requests, Duration: duration}, nil
}
