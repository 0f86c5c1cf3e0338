package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/metrics"
	"DriverOnboard/pkg/notify"
	"DriverOnboard/storage/kv"
)

const testPhone = "+919876543210"

// flakyStore 写入可按需失败，读取可失败指定次数
type flakyStore struct {
	kv.Store
	failWrites atomic.Bool
	failGets   atomic.Int32

	mu     sync.Mutex
	writes map[string]int
	// key -> 第几次写入失败
	failAt map[string]int
}

// failWriteAt 让某个 key 的第 n 次写入失败
func (s *flakyStore) failWriteAt(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAt == nil {
		s.failAt = make(map[string]int)
	}
	s.failAt[key] = n
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.failGets.Load() > 0 {
		s.failGets.Add(-1)
		return "", testErr("i/o timeout")
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failWrites.Load() {
		return assertErr
	}

	s.mu.Lock()
	if s.writes == nil {
		s.writes = make(map[string]int)
	}
	s.writes[key]++
	fail := s.failAt[key] != 0 && s.failAt[key] == s.writes[key]
	s.mu.Unlock()
	if fail {
		return assertErr
	}
	return s.Store.Set(ctx, key, value)
}

type testErr string

func (e testErr) Error() string { return string(e) }

const assertErr = testErr("disk full")

type fixture struct {
	store    *flakyStore
	api      *apiclient.MockClient
	notifier *notify.Recorder
	ob       *Onboarding
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	opts := Options{
		Region:             "IN",
		AssumePersonalInfo: true,
		ReconcileTimeout:   2 * time.Second,
		BreakerFailures:    5,
		BreakerReset:       time.Minute,
	}
	for _, m := range mutate {
		m(&opts)
	}

	f := &fixture{
		store:    &flakyStore{Store: kv.NewMemory()},
		api:      apiclient.NewMockClient(),
		notifier: notify.NewRecorder(),
	}
	f.ob = New(Deps{
		Store:    f.store,
		API:      f.api,
		Notifier: f.notifier,
		Metrics:  metrics.Local(),
	}, opts)

	require.NoError(t, f.store.Set(context.Background(), model.KeyPhoneNumber, testPhone))
	return f
}

func (f *fixture) completeAll(t *testing.T, order ...model.Section) {
	t.Helper()
	if len(order) == 0 {
		order = model.Sections()
	}
	for _, s := range order {
		require.NoError(t, f.ob.Tracker.MarkComplete(context.Background(), s))
	}
}

func profile(r model.CompletionRecord) *dto.ProfileStatus {
	return dto.NewProfileStatus(r)
}
