package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/internal/service"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/storage"
	"DriverOnboard/storage/kv"
)

// app 一次命令执行内共享的依赖
type app struct {
	notifier *notify.Writer
	out      string

	store   kv.Store
	api     *apiclient.HTTPClient
	metrics *metrics.Metrics
	ob      *service.Onboarding
}

func (a *app) open(ctx context.Context) error {
	store, err := storage.Init()
	if err != nil {
		return err
	}
	a.store = store

	api, err := apiclient.New(config.Cfg.BackendURL)
	if err != nil {
		return err
	}
	a.api = api
	a.metrics = metrics.Local()

	a.ob = service.New(service.Deps{
		Store:    store,
		API:      api,
		Notifier: a.notifier,
		Metrics:  a.metrics,
	}, service.OptionsFromConfig(config.Cfg))

	// 恢复 bearer 和 driver 请求头
	_, err = a.ob.Session.Restore(ctx)
	return err
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	// 本次命令的计数，LOGGER_LEVEL=DEBUG 时可见
	if sum := a.metrics.Summary(); len(sum) > 0 {
		logger.Logger.Debug("Command metrics", zap.Any("counters", sum))
	}
	storage.Close(a.store)
	a.store = nil
}

// print json 模式输出 v，text 模式输出 text
func (a *app) print(v interface{}, text string) {
	if a.out == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			fmt.Fprintln(os.Stdout, string(b))
			return
		}
	}
	fmt.Fprintln(os.Stdout, text)
}
