package service

import (
	"time"

	"DriverOnboard/config"
	"DriverOnboard/internal/draft"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/storage/kv"
)

// Deps 外部协作者
type Deps struct {
	Store    kv.Store
	API      apiclient.Client
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

type Options struct {
	Region                string
	AssumePersonalInfo    bool
	ReconcilePersonalInfo bool
	ReconcileTimeout      time.Duration
	BreakerFailures       int
	BreakerReset          time.Duration
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Region:                cfg.PhoneRegion,
		AssumePersonalInfo:    cfg.AssumePersonalInfoComplete,
		ReconcilePersonalInfo: cfg.ReconcilePersonalInfo,
		ReconcileTimeout:      cfg.ReconcileTimeout,
		BreakerFailures:       cfg.ReconcileBreakerFailures,
		BreakerReset:          cfg.ReconcileBreakerReset,
	}
}

// Onboarding 一个已登录会话内的全部服务，共享同一个 tracker
type Onboarding struct {
	Tracker    *CompletionTracker
	Reconciler *Reconciler
	Gate       *SubmissionGate
	Sections   *SectionService
	Session    *SessionService
}

func New(d Deps, o Options) *Onboarding {
	if o.Region == "" {
		o.Region = "IN"
	}

	tracker := NewCompletionTracker(d.Store, d.Notifier, d.Metrics, o.AssumePersonalInfo)
	reconciler := NewReconciler(d.API, tracker, d.Store, d.Notifier, d.Metrics, ReconcilerOptions{
		Timeout:               o.ReconcileTimeout,
		Region:                o.Region,
		ReconcilePersonalInfo: o.ReconcilePersonalInfo,
		BreakerFailures:       o.BreakerFailures,
		BreakerReset:          o.BreakerReset,
	})
	gate := NewSubmissionGate(d.API, tracker, reconciler, d.Store, d.Notifier, d.Metrics, o.Region)

	return &Onboarding{
		Tracker:    tracker,
		Reconciler: reconciler,
		Gate:       gate,
		Sections:   NewSectionService(draft.NewRepository(d.Store), tracker, reconciler, d.API, d.Store, d.Metrics, o.Region),
		Session:    NewSessionService(d.API, d.Store, tracker, gate, o.Region),
	}
}
