package storage

import (
	"fmt"

	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/storage/kv"
	"DriverOnboard/storage/redis"
)

// 统一 init storage 层，按 STORE_DRIVER 选择后端
func Init() (kv.Store, error) {
	cfg := config.Cfg
	return Open(cfg.StoreDriver, cfg.StorePath, cfg.RedisPrefix)
}

// Open 按驱动打开一个 store，redis 驱动共享同一个连接，用 prefix 隔离
func Open(driver, path, prefix string) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)

	switch driver {
	case "redis":
		if err = redis.Init(); err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		store = kv.NewRedis(redis.Client(), prefix)
	case "memory":
		store = kv.NewMemory()
	default:
		store, err = kv.NewBolt(path)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
	}

	logger.Logger.Debug("Storage initialized",
		zap.String("driver", driver),
		zap.String("prefix", prefix),
	)
	return store, nil
}
