package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/internal/backend"
	"DriverOnboard/internal/handler"
	"DriverOnboard/internal/middleware"
	"DriverOnboard/internal/router"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/snowflake"
	"DriverOnboard/pkg/token"
	"DriverOnboard/storage"
)

func main() {
	logger.Init(logger.Server)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 开发后端的数据和 CLI 的本地状态分开存放
	store, err := storage.Open(config.Cfg.DevServerStore, "", config.Cfg.RedisPrefix+":devserver")
	if err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close(store)

	ids, err := snowflake.New(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	if err := token.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize token package", zap.Error(err))
	} // token 在中间件前初始化，middleware 依赖 token

	httpMetrics, err := metrics.NewHTTP(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	if err := middleware.Init(httpMetrics); err != nil {
		logger.Logger.Fatal("Failed to initialize middlewares", zap.Error(err))
	}

	handler.Init(backend.New(store, ids, token.Default(), backend.Options{
		Region:   config.Cfg.PhoneRegion,
		OTPCode:  config.Cfg.DevServerOTPCode,
		OTPTTL:   config.Cfg.DevServerOTPTTL,
		OTPDaily: config.Cfg.DevServerOTPDaily,
	}))

	logger.Logger.Info("Development backend starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.DevServerPort),
		zap.String("store", config.Cfg.DevServerStore),
	)

	addr := net.JoinHostPort(config.Cfg.DevServerHost, config.Cfg.DevServerPort)
	h := server.Default(server.WithHostPorts(addr))

	router.Register(h.Engine, promhttp.Handler())

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
