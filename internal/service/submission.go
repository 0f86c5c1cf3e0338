package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/pkg/phone"
	"DriverOnboard/storage/kv"
)

// 提交状态机：idle -> submitting -> submitted | failed，failed 可重新提交
const (
	GateIdle       = "idle"
	GateSubmitting = "submitting"
	GateSubmitted  = "submitted"
	GateFailed     = "failed"

	eventSubmit  = "submit"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventAbort   = "abort"
)

const submittedMessage = "Registration submitted. Your details are pending verification."

// SubmissionGate 只有全部分区完成时才允许提交，自己管理进行中状态和幂等 token
type SubmissionGate struct {
	api        apiclient.Client
	tracker    *CompletionTracker
	reconciler *Reconciler
	store      kv.Store
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	region     string

	mu         sync.Mutex
	fsm        *fsm.FSM
	attemptKey string
}

func NewSubmissionGate(api apiclient.Client, tracker *CompletionTracker, reconciler *Reconciler, store kv.Store, notifier notify.Notifier, m *metrics.Metrics, region string) *SubmissionGate {
	return &SubmissionGate{
		api:        api,
		tracker:    tracker,
		reconciler: reconciler,
		store:      store,
		notifier:   notifier,
		metrics:    m,
		region:     region,
		fsm:        newGateFSM(),
	}
}

func newGateFSM() *fsm.FSM {
	return fsm.NewFSM(
		GateIdle,
		fsm.Events{
			{Name: eventSubmit, Src: []string{GateIdle, GateFailed}, Dst: GateSubmitting},
			{Name: eventSucceed, Src: []string{GateSubmitting}, Dst: GateSubmitted},
			{Name: eventFail, Src: []string{GateSubmitting}, Dst: GateFailed},
			{Name: eventAbort, Src: []string{GateSubmitting}, Dst: GateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Logger.Debug("Submission state changed",
					zap.String("from", e.Src),
					zap.String("to", e.Dst),
				)
			},
		},
	)
}

// CanSubmit 等价于全部分区已完成
func (g *SubmissionGate) CanSubmit(ctx context.Context) bool {
	return g.tracker.IsFullyComplete(ctx)
}

func (g *SubmissionGate) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fsm.Current()
}

// Submit 提交注册。未完成时返回指出第一个未完成分区的校验错误且不改变任何状态；
// 提交进行中再次调用返回 errors.SubmissionInFlight。
func (g *SubmissionGate) Submit(ctx context.Context) (*model.TerminalState, error) {
	key, identity, err := g.begin(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return submittedState(), nil
	}

	logger.Logger.Info("Submitting registration", zap.String("idempotency_key", key))

	res, err := g.api.CompleteVerification(ctx, dto.CompleteVerificationRequest{PhoneNumber: identity, Submit: true}, key)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		_ = g.fsm.Event(ctx, eventFail)
		g.metrics.Submit(metrics.ResultFailed)
		logger.Logger.Warn("Registration submission failed",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("submit registration: %w", err)
	}

	rec := g.reconciler.Apply(ctx, res.Profile)
	if !res.Submitted {
		_ = g.fsm.Event(ctx, eventAbort)
		g.metrics.Submit(metrics.ResultIncomplete)
		if pending := rec.Pending(); len(pending) > 0 {
			return nil, incompleteError(pending[0])
		}
		msg := res.Message
		if msg == "" {
			msg = errors.ServerRejected.Message
		}
		return nil, &apiclient.APIError{Path: apiclient.PathCompleteVerification, StatusCode: 200, Message: msg}
	}

	// 只有记录全部完成时才能写入 detailsSubmit
	if pending := rec.Pending(); len(pending) > 0 {
		_ = g.fsm.Event(ctx, eventAbort)
		g.metrics.Submit(metrics.ResultIncomplete)
		logger.Logger.Warn("Server accepted submission but reported incomplete sections",
			zap.String("idempotency_key", key),
			zap.String("section", string(pending[0])),
		)
		return nil, incompleteError(pending[0])
	}

	if err := g.store.Set(context.WithoutCancel(ctx), model.KeyDetailsSubmit, "true"); err != nil {
		logger.Logger.Warn("Failed to persist submission state", zap.Error(err))
		g.metrics.StorageError("write")
		notify.Error(ctx, g.notifier, errors.StorageWriteFailed)
	}

	_ = g.fsm.Event(ctx, eventSucceed)
	g.metrics.Submit(metrics.ResultOK)
	logger.Logger.Info("Registration submitted", zap.String("idempotency_key", key))

	st := submittedState()
	if res.Message != "" {
		st.Message = res.Message
	}
	return st, nil
}

// begin 在锁内完成全部前置检查并进入 submitting，返回本次的幂等 token；
// 已提交时返回空 token
func (g *SubmissionGate) begin(ctx context.Context) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.fsm.Current() {
	case GateSubmitting:
		g.metrics.Submit(metrics.ResultInFlight)
		return "", "", errors.SubmissionInFlight
	case GateSubmitted:
		return "", "", nil
	}

	if v, err := g.store.Get(ctx, model.KeyDetailsSubmit); err == nil && v == "true" {
		g.fsm.SetState(GateSubmitted)
		return "", "", nil
	}

	if pending := g.tracker.PendingSections(ctx); len(pending) > 0 {
		g.metrics.Submit(metrics.ResultIncomplete)
		return "", "", incompleteError(pending[0])
	}

	raw, err := g.store.Get(ctx, model.KeyPhoneNumber)
	if err != nil || raw == "" {
		return "", "", errors.PhoneNumberMissing
	}
	identity, err := phone.Normalize(raw, g.region)
	if err != nil {
		return "", "", errors.NewFieldError(errors.PhoneInvalid, "", model.KeyPhoneNumber)
	}

	if err := g.fsm.Event(ctx, eventSubmit); err != nil {
		return "", "", fmt.Errorf("submission state: %w", err)
	}

	g.attemptKey = uuid.NewString()
	return g.attemptKey, identity, nil
}

// AttemptKey 最近一次提交使用的幂等 token
func (g *SubmissionGate) AttemptKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attemptKey
}

// Reset 登出时回到 idle
func (g *SubmissionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fsm.SetState(GateIdle)
	g.attemptKey = ""
}

func incompleteError(s model.Section) error {
	return errors.NewFieldError(errors.SectionIncomplete, "Please complete "+s.Title(), string(s))
}

func submittedState() *model.TerminalState {
	return &model.TerminalState{
		Submitted: true,
		Next:      model.RoutePendingVerification,
		Message:   submittedMessage,
	}
}
