package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/breaker"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/pkg/phone"
	"DriverOnboard/storage/kv"
)

// Reconciler 用服务端的完成状态覆盖本地记录。
// 失败时本地记录不变，调用方继续使用上次的本地状态。
type Reconciler struct {
	api      apiclient.Client
	tracker  *CompletionTracker
	store    kv.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics

	breaker *breaker.CircuitBreaker
	group   singleflight.Group

	timeout               time.Duration
	region                string
	reconcilePersonalInfo bool
}

type ReconcilerOptions struct {
	Timeout               time.Duration
	Region                string
	ReconcilePersonalInfo bool
	BreakerFailures       int
	BreakerReset          time.Duration
}

func NewReconciler(api apiclient.Client, tracker *CompletionTracker, store kv.Store, notifier notify.Notifier, m *metrics.Metrics, opts ReconcilerOptions) *Reconciler {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}

	cb := breaker.New("complete_verification", opts.BreakerFailures, opts.BreakerReset).
		WithFailureFilter(func(err error) bool {
			// 服务端明确拒绝说明后端可用
			return !stderrors.Is(err, errors.ServerRejected) && !errors.IsConfigError(err)
		})

	return &Reconciler{
		api:                   api,
		tracker:               tracker,
		store:                 store,
		notifier:              notifier,
		metrics:               m,
		breaker:               cb,
		timeout:               opts.Timeout,
		region:                opts.Region,
		reconcilePersonalInfo: opts.ReconcilePersonalInfo,
	}
}

// ReconcileSession 使用本地保存的手机号对账
func (r *Reconciler) ReconcileSession(ctx context.Context) (model.CompletionRecord, error) {
	phoneNumber, err := r.store.Get(ctx, model.KeyPhoneNumber)
	if err != nil || phoneNumber == "" {
		err = errors.PhoneNumberMissing
		r.fail(ctx, err)
		return r.tracker.Record(ctx), err
	}
	return r.Reconcile(ctx, phoneNumber)
}

// Reconcile 同一号码的并发请求合并为一次远程调用，最长等待 timeout
func (r *Reconciler) Reconcile(ctx context.Context, phoneNumber string) (model.CompletionRecord, error) {
	identity, err := phone.Normalize(phoneNumber, r.region)
	if err != nil {
		err = errors.NewFieldError(errors.PhoneInvalid, "", model.KeyPhoneNumber)
		r.fail(ctx, err)
		return r.tracker.Record(ctx), err
	}

	ch := r.group.DoChan(identity, func() (interface{}, error) {
		// 合并后的调用不跟随单个调用方取消
		bg := context.WithoutCancel(ctx)
		callCtx, cancel := context.WithTimeout(bg, r.timeout)
		defer cancel()

		var res *apiclient.VerificationResult
		err := r.breaker.Call(callCtx, func(ctx context.Context) error {
			var callErr error
			res, callErr = r.fetch(ctx, identity)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		return r.Apply(bg, res.Profile), nil
	})

	wait, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	select {
	case out := <-ch:
		if out.Err != nil {
			r.fail(ctx, out.Err)
			return r.tracker.Record(ctx), out.Err
		}
		r.metrics.Reconcile(metrics.ResultOK)
		return out.Val.(model.CompletionRecord), nil
	case <-wait.Done():
		err := fmt.Errorf("reconcile: %w: %w", errors.NetworkUnavailable, wait.Err())
		r.fail(ctx, err)
		return r.tracker.Record(ctx), err
	}
}

// fetch 在 ctx 到期时立即返回，不依赖底层客户端是否响应取消
func (r *Reconciler) fetch(ctx context.Context, identity string) (*apiclient.VerificationResult, error) {
	type result struct {
		res *apiclient.VerificationResult
		err error
	}

	done := make(chan result, 1)
	go func() {
		res, err := r.api.CompleteVerification(ctx, dto.CompleteVerificationRequest{PhoneNumber: identity}, "")
		done <- result{res, err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("complete-verification: %w: %w", errors.NetworkUnavailable, ctx.Err())
	}
}

// Apply 把服务端状态合并进本地记录，服务端报告的字段以服务端为准
func (r *Reconciler) Apply(ctx context.Context, profile *dto.ProfileStatus) model.CompletionRecord {
	if profile == nil {
		return r.tracker.Record(ctx)
	}

	rec := r.tracker.ApplyServer(ctx, profile.Reported(), !r.reconcilePersonalInfo)
	logger.Logger.Debug("Completion status reconciled",
		zap.Int("completed", rec.CompletedCount()),
		zap.Bool("fully_complete", rec.IsFullyComplete()),
	)
	return rec
}

func (r *Reconciler) fail(ctx context.Context, err error) {
	r.metrics.Reconcile(reconcileResult(err))
	logger.Logger.Warn("Failed to reconcile completion status", zap.Error(err))
	notify.Error(ctx, r.notifier, err)
}

func reconcileResult(err error) string {
	switch {
	case stderrors.Is(err, errors.CircuitOpen):
		return metrics.ResultCircuitOpen
	case stderrors.Is(err, errors.NetworkUnavailable):
		return metrics.ResultNetwork
	case stderrors.Is(err, errors.ServerRejected):
		return metrics.ResultRejected
	default:
		return metrics.ResultFailed
	}
}
