package middleware

import (
	"fmt"

	"go.uber.org/zap"

	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/token"
)

// Init 初始化依赖共享实例的中间件，token 需要先于它初始化
func Init(httpMetrics *metrics.HTTPMetrics) error {
	if err := initAuthMiddleware(token.Default()); err != nil {
		logger.Logger.Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}
	if httpMetrics == nil {
		return fmt.Errorf("http metrics not initialized")
	}
	requestMetrics = httpMetrics

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
