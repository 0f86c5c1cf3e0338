package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriverOnboard/internal/model"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/storage/kv"
)

type failingStore struct {
	kv.Store
}

func (failingStore) Set(context.Context, string, string) error {
	return assert.AnError
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := NewRepository(store)

	in := model.VehicleDetails{Type: "bike", Model: "Splendor", Manufacturer: "Hero", PlateNumber: "KA01AB1234"}
	require.NoError(t, repo.Save(ctx, model.SectionVehicleDetails, in))

	raw, err := store.Get(ctx, model.KeyVehicleDetails)
	require.NoError(t, err)
	assert.Contains(t, raw, `"plateNumber":"KA01AB1234"`)

	var out model.VehicleDetails
	require.NoError(t, repo.Load(ctx, model.SectionVehicleDetails, &out))
	assert.Equal(t, in, out)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	repo := NewRepository(kv.NewMemory())

	var out model.BankDetails
	err := repo.Load(context.Background(), model.SectionBankDetails, &out)
	assert.ErrorIs(t, err, errors.DraftNotFound)
}

func TestSaveSurvivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := kv.NewMemory()
	repo := NewRepository(store)
	require.NoError(t, repo.Save(ctx, model.SectionEmergencyDetails, model.EmergencyDetails{PrimaryContactName: "Asha"}))

	_, err := store.Get(context.Background(), model.KeyEmergencyDetails)
	assert.NoError(t, err)
}

func TestSaveFailureIsStorageError(t *testing.T) {
	repo := NewRepository(failingStore{kv.NewMemory()})

	err := repo.Save(context.Background(), model.SectionBankDetails, model.BankDetails{})
	assert.ErrorIs(t, err, errors.StorageWriteFailed)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	repo := NewRepository(store)

	require.NoError(t, repo.Save(ctx, model.SectionBankDetails, model.BankDetails{AccountHolderName: "Ravi"}))
	require.NoError(t, store.Set(ctx, model.KeyVehicleDetails, "{broken"))

	drafts, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, drafts.Bank)
	assert.Equal(t, "Ravi", drafts.Bank.AccountHolderName)
	assert.Nil(t, drafts.Vehicle)
	assert.Nil(t, drafts.Personal)
}

func TestUnknownSection(t *testing.T) {
	repo := NewRepository(kv.NewMemory())
	err := repo.Save(context.Background(), model.Section("payroll"), struct{}{})
	assert.ErrorIs(t, err, errors.UnknownSection)
}
