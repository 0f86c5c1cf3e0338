package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/logger"
)

// RecoverConfig recover 中间件配置
type RecoverConfig struct {
	// 是否记录堆栈
	EnableStackTrace bool
	// 生产环境是否返回详细错误
	ExposeDetailsInProduction bool
	IsProduction              bool
}

func NewRecoverConfig() RecoverConfig {
	return RecoverConfig{
		EnableStackTrace: true,
		IsProduction:     config.Cfg.IsProduction(),
	}
}

// RecoverMiddleware 创建 recover 中间件
func RecoverMiddleware() app.HandlerFunc {
	return RecoverMiddlewareWithConfig(NewRecoverConfig())
}

func RecoverMiddlewareWithConfig(cfg RecoverConfig) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				handlePanic(ctx, c, err, cfg)
			}
		}()

		c.Next(ctx)
	}
}

func handlePanic(ctx context.Context, c *app.RequestContext, err interface{}, cfg RecoverConfig) {
	fields := []zap.Field{
		zap.String("panic", fmt.Sprintf("%v", err)),
		zap.String("path", string(c.Path())),
		zap.String("method", string(c.Method())),
		zap.String("client_ip", c.ClientIP()),
	}
	if id, ok := GetDriverID(ctx, c); ok {
		fields = append(fields, zap.String("driver_id", id))
	}
	if cfg.EnableStackTrace {
		fields = append(fields, zap.String("stack", filterStack(debug.Stack())))
	}
	logger.Logger.Error("[PANIC RECOVERED]", fields...)

	msg := "Internal server error"
	if !cfg.IsProduction || cfg.ExposeDetailsInProduction {
		msg = fmt.Sprintf("Internal error: %v", err)
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIResponse{
		Success: false,
		Message: msg,
		Error:   "INTERNAL_SERVER_ERROR",
	})
}

// filterStack 去掉 runtime 相关的堆栈行
func filterStack(stack []byte) string {
	lines := strings.Split(string(stack), "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, "/runtime/") {
			continue
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}
