package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"DriverOnboard/pkg/logger"
	"DriverOnboard/storage/kv"
	"DriverOnboard/storage/redis"
)

// Close 先关闭 store，再关闭 Redis 连接（未初始化时为空操作）
func Close(store kv.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if store != nil {
		if err := store.Close(); err != nil {
			logger.Logger.Error("Failed to close store", zap.Error(err))
		}
	}

	if err := redis.Close(ctx); err != nil {
		logger.Logger.Error("Failed to close Redis connection", zap.Error(err))
	}
}
