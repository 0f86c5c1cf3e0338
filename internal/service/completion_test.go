package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriverOnboard/internal/model"
)

func TestDefaultRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := f.ob.Tracker.Record(ctx)
	assert.Equal(t, model.CompletionRecord{PersonalInformation: true}, rec)
	assert.False(t, f.ob.Tracker.IsFullyComplete(ctx))
}

func TestDefaultRecordWithoutPersonalInfoAssumption(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AssumePersonalInfo = false })

	assert.Equal(t, model.CompletionRecord{}, f.ob.Tracker.Record(context.Background()))
	assert.Equal(t, model.Sections(), f.ob.Tracker.PendingSections(context.Background()))
}

// 只完成车辆信息时剩余分区按顺序待填
func TestPendingAfterVehicleDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionVehicleDetails))

	assert.Equal(t, []model.Section{
		model.SectionPersonalDocuments,
		model.SectionBankDetails,
		model.SectionEmergencyDetails,
	}, f.ob.Tracker.PendingSections(ctx))
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))
	once := f.ob.Tracker.Record(ctx)
	stored, err := f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))
	assert.Equal(t, once, f.ob.Tracker.Record(ctx))
	again, err := f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)
	assert.JSONEq(t, stored, again)
}

func TestMarkCompleteIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	sections := model.Sections()

	seen := map[model.Section]bool{}
	for i := 0; i < 50; i++ {
		s := sections[rng.Intn(len(sections))]
		require.NoError(t, f.ob.Tracker.MarkComplete(ctx, s))
		seen[s] = true

		rec := f.ob.Tracker.Record(ctx)
		for done := range seen {
			assert.True(t, rec.Get(done), "flag %s went back to false", done)
		}
	}
}

func TestMarkCompleteRejectsUnknownSection(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.ob.Tracker.MarkComplete(context.Background(), model.Section("payroll")))
}

func TestStoredRecordMissingFieldsUseDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyCompletionStatus, `{"vehicleDetails":true}`))

	rec := f.ob.Tracker.Record(ctx)
	assert.True(t, rec.PersonalInformation)
	assert.True(t, rec.VehicleDetails)
	assert.False(t, rec.BankDetails)
}

func TestStoredFalsePersonalInfoIsRespected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyCompletionStatus, `{"personalInformation":false}`))

	assert.False(t, f.ob.Tracker.Record(ctx).PersonalInformation)
}

func TestPersistFailureKeepsInMemoryFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.failWrites.Store(true)

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionEmergencyDetails))

	assert.True(t, f.ob.Tracker.Record(ctx).EmergencyDetails)
	assert.Equal(t, []string{persistFailedMessage}, f.notifier.Toasts)
	_, err := f.store.Get(ctx, model.KeyCompletionStatus)
	assert.Error(t, err)
}

func TestMarkCompleteAfterFailedLoadKeepsStoredFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyCompletionStatus, `{"personalInformation":true,"vehicleDetails":true}`))
	f.store.failGets.Store(1)

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))

	rec := f.ob.Tracker.Record(ctx)
	assert.True(t, rec.VehicleDetails)
	assert.True(t, rec.BankDetails)

	raw, err := f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)
	assert.JSONEq(t, `{"personalInformation":true,"personalDocuments":false,"vehicleDetails":true,"bankDetails":true,"emergencyDetails":false}`, raw)
}

func TestUnreadableRecordIsNotOverwritten(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stored := `{"personalInformation":true,"vehicleDetails":true}`
	require.NoError(t, f.store.Set(ctx, model.KeyCompletionStatus, stored))
	f.store.failGets.Store(2)

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))

	raw, err := f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)
	assert.JSONEq(t, stored, raw)

	// 下次读取成功时合并内存里的标记
	rec := f.ob.Tracker.Record(ctx)
	assert.True(t, rec.VehicleDetails)
	assert.True(t, rec.BankDetails)
	raw, err = f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)
	assert.Contains(t, raw, `"bankDetails":true`)
	assert.Contains(t, raw, `"vehicleDetails":true`)
}

func TestRecordSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))

	restarted := NewCompletionTracker(f.store, f.notifier, nil, true)
	assert.True(t, restarted.Record(ctx).BankDetails)
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	full := model.CompletionRecord{
		PersonalInformation: true, PersonalDocuments: true, VehicleDetails: true,
		BankDetails: true, EmergencyDetails: true,
	}
	f.ob.Tracker.Replace(ctx, full)

	assert.True(t, f.ob.Tracker.IsFullyComplete(ctx))
	restarted := NewCompletionTracker(f.store, f.notifier, nil, true)
	assert.Equal(t, full, restarted.Record(ctx))
}

func TestEnsureCreatesRecordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ob.Tracker.Ensure(ctx)
	raw, err := f.store.Get(ctx, model.KeyCompletionStatus)
	require.NoError(t, err)
	assert.JSONEq(t, `{"personalInformation":true,"personalDocuments":false,"vehicleDetails":false,"bankDetails":false,"emergencyDetails":false}`, raw)

	require.NoError(t, f.ob.Tracker.MarkComplete(ctx, model.SectionBankDetails))
	f.ob.Tracker.Ensure(ctx)
	assert.True(t, f.ob.Tracker.Record(ctx).BankDetails)
}
