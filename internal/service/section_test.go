package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/storage/kv"
)

func validPersonal() *model.PersonalInfo {
	return &model.PersonalInfo{
		FirstName:     " Ravi ",
		LastName:      "Kumar",
		FatherName:    "Suresh Kumar",
		DateOfBirth:   "15 - 08 - 1990",
		PrimaryMobile: "9876543210",
		BloodGroup:    "O+",
		Address:       "12 MG Road, Bengaluru",
		Languages:     []string{"Hindi", "English"},
	}
}

func validBank() *model.BankDetails {
	return &model.BankDetails{
		AccountHolderName:    "Ravi Kumar",
		AccountNumber:        "123456789012",
		ConfirmAccountNumber: "123456789012",
		IFSCCode:             "sbin0001234",
	}
}

func TestSavePersonalInfoStaysLocal(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AssumePersonalInfo = false })
	ctx := context.Background()

	rec, err := f.ob.Sections.Save(ctx, model.SectionPersonalInformation, validPersonal())
	require.NoError(t, err)
	assert.True(t, rec.PersonalInformation)

	assert.Len(t, f.api.Calls, 1)
	assert.Len(t, f.api.CallsTo(apiclient.PathCompleteVerification), 1)

	d, err := f.ob.Sections.Load(ctx, model.SectionPersonalInformation)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", d.(*model.PersonalInfo).FirstName)
}

func TestSaveRejectsInvalidDraftBeforeIO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bank := validBank()
	bank.ConfirmAccountNumber = "000000000000"

	_, err := f.ob.Sections.Save(ctx, model.SectionBankDetails, bank)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ValidationFailed)
	assert.Equal(t, "Account numbers do not match: confirmAccountNumber", err.Error())

	assert.Empty(t, f.api.Calls)
	assert.False(t, f.ob.Tracker.Record(ctx).BankDetails)
	_, err = f.store.Get(ctx, model.KeyBankDetails)
	assert.True(t, kv.IsNotFound(err))
}

func TestSaveBankSubmitsNormalizedDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.ob.Sections.Save(ctx, model.SectionBankDetails, validBank())
	require.NoError(t, err)
	assert.True(t, rec.BankDetails)

	calls := f.api.CallsTo(apiclient.PathBankDetails)
	require.Len(t, calls, 1)
	req := calls[0].Body.(dto.BankDetailsRequest)
	assert.Equal(t, testPhone, req.PhoneNumber)
	assert.Equal(t, "SBIN0001234", req.IFSCCode)
}

func TestSaveMarksCompleteBeforeReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var seen bool
	f.api.OnComplete = func(context.Context, dto.CompleteVerificationRequest, string) (*apiclient.VerificationResult, error) {
		seen = f.ob.Tracker.Record(ctx).VehicleDetails
		return &apiclient.VerificationResult{}, nil
	}

	_, err := f.ob.Sections.Save(ctx, model.SectionVehicleDetails, &model.VehicleDetails{
		Type:         "Bike",
		Model:        "Splendor",
		Manufacturer: "Hero",
		PlateNumber:  "ka01ab1234",
	})
	require.NoError(t, err)
	assert.True(t, seen)

	d, err := f.ob.Sections.Load(ctx, model.SectionVehicleDetails)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", d.(*model.VehicleDetails).PlateNumber)
}

func TestSaveDocumentsUploadsAndMarksDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	docs := &model.DocumentsStatus{
		Aadhaar: model.DocumentPair{Front: "/tmp/a1.jpg", Back: "/tmp/a2.jpg"},
		PAN:     model.DocumentPair{Front: "/tmp/p1.jpg", Back: "/tmp/p2.jpg"},
		License: model.DocumentPair{Front: "/tmp/l1.jpg", Back: "/tmp/l2.jpg"},
	}
	_, err := f.ob.Sections.Save(ctx, model.SectionPersonalDocuments, docs)
	require.NoError(t, err)

	calls := f.api.CallsTo(apiclient.PathPersonalDocuments)
	require.Len(t, calls, 1)
	files := calls[0].Body.(map[string]string)
	assert.Len(t, files, 6)
	assert.Equal(t, "/tmp/p2.jpg", files["panBack"])

	d, err := f.ob.Sections.Load(ctx, model.SectionPersonalDocuments)
	require.NoError(t, err)
	stored := d.(*model.DocumentsStatus)
	assert.True(t, stored.Aadhaar.Uploaded)
	assert.True(t, stored.License.Uploaded)
}

func TestSaveMissingDocumentNamesField(t *testing.T) {
	f := newFixture(t)

	docs := &model.DocumentsStatus{
		Aadhaar: model.DocumentPair{Front: "a", Back: "b"},
		PAN:     model.DocumentPair{Front: "c"},
		License: model.DocumentPair{Front: "e", Back: "f"},
	}
	_, err := f.ob.Sections.Save(context.Background(), model.SectionPersonalDocuments, docs)

	var fe *errors.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"pan.back"}, fe.Fields)
	assert.Equal(t, errors.ValidationFailed.Message, fe.Message)
}

func TestSaveEmergencyNormalizesPhones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ob.Sections.Save(ctx, model.SectionEmergencyDetails, &model.EmergencyDetails{
		PrimaryContactName:     "Sita",
		PrimaryContactRelation: "Mother",
		PrimaryContactPhone:    "9876512345",
		BloodGroup:             "B+",
	})
	require.NoError(t, err)

	calls := f.api.CallsTo(apiclient.PathEmergencyDetails)
	require.Len(t, calls, 1)
	req := calls[0].Body.(dto.EmergencyDetailsRequest)
	assert.Equal(t, "+919876512345", req.PrimaryContactPhone)
	assert.Equal(t, "Mother", req.PrimaryContactRelationship)
	assert.Equal(t, "B+", req.MedicalBloodGroup)
	assert.Empty(t, req.SecondaryContactPhone)
}

func TestSaveRemoteFailureKeepsDraftOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.FailNext = networkDown()
	_, err := f.ob.Sections.Save(ctx, model.SectionBankDetails, validBank())
	assert.ErrorIs(t, err, errors.NetworkUnavailable)

	assert.False(t, f.ob.Tracker.Record(ctx).BankDetails)
	_, err = f.store.Get(ctx, model.KeyBankDetails)
	assert.NoError(t, err)
}

// 对账失败不影响保存结果
func TestSaveSurvivesReconcileFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.OnComplete = func(context.Context, dto.CompleteVerificationRequest, string) (*apiclient.VerificationResult, error) {
		return nil, networkDown()
	}

	rec, err := f.ob.Sections.Save(ctx, model.SectionBankDetails, validBank())
	require.NoError(t, err)
	assert.True(t, rec.BankDetails)
	assert.Equal(t, 1, f.notifier.ToastCount())
}

func TestLoadUnsavedSectionReturnsEmptyDraft(t *testing.T) {
	f := newFixture(t)

	d, err := f.ob.Sections.Load(context.Background(), model.SectionEmergencyDetails)
	require.NoError(t, err)
	assert.Equal(t, &model.EmergencyDetails{}, d)

	_, err = f.ob.Sections.Load(context.Background(), model.Section("payments"))
	assert.ErrorIs(t, err, errors.UnknownSection)
}

func TestLoadAllDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ob.Sections.Save(ctx, model.SectionBankDetails, validBank())
	require.NoError(t, err)

	all, err := f.ob.Sections.LoadAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, all.Bank)
	assert.Equal(t, "SBIN0001234", all.Bank.IFSCCode)
	assert.Nil(t, all.Vehicle)
}

func TestSaveDocumentsSucceedsWhenUploadedFlagNotSaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 第一次写入是保存草稿，第二次是上传后更新 uploaded 标记
	f.store.failWriteAt(model.KeyDocumentsStatus, 2)

	docs := &model.DocumentsStatus{
		Aadhaar: model.DocumentPair{Front: "/tmp/a1.jpg", Back: "/tmp/a2.jpg"},
		PAN:     model.DocumentPair{Front: "/tmp/p1.jpg", Back: "/tmp/p2.jpg"},
		License: model.DocumentPair{Front: "/tmp/l1.jpg", Back: "/tmp/l2.jpg"},
	}
	rec, err := f.ob.Sections.Save(ctx, model.SectionPersonalDocuments, docs)
	require.NoError(t, err)
	assert.True(t, rec.PersonalDocuments)
	assert.True(t, f.ob.Tracker.Record(ctx).PersonalDocuments)
	assert.Len(t, f.api.CallsTo(apiclient.PathPersonalDocuments), 1)

	d, err := f.ob.Sections.Load(ctx, model.SectionPersonalDocuments)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a1.jpg", d.(*model.DocumentsStatus).Aadhaar.Front)
	assert.False(t, d.(*model.DocumentsStatus).Aadhaar.Uploaded)
}

func TestLoadFallsBackToServerCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyDriverID, "1001"))

	f.api.Remote = &dto.Driver{
		ID:             "1001",
		VehicleDetails: &model.VehicleDetails{Type: "Bike", Model: "Splendor", Manufacturer: "Hero", PlateNumber: "KA01AB1234"},
		BankDetails:    &model.BankDetails{AccountHolderName: "Ravi Kumar", AccountNumber: "123456789012", IFSCCode: "SBIN0001234"},
		EmergencyDetails: &dto.EmergencyDetailsRequest{
			PrimaryContactName:         "Sita",
			PrimaryContactRelationship: "Mother",
			PrimaryContactPhone:        "+919876512345",
			MedicalBloodGroup:          "B+",
		},
	}
	f.api.Documents = &dto.DocumentStatus{
		Aadhaar: dto.DocumentPairStatus{Front: true, Back: true},
		PAN:     dto.DocumentPairStatus{Front: true},
	}

	d, err := f.ob.Sections.Load(ctx, model.SectionVehicleDetails)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", d.(*model.VehicleDetails).PlateNumber)

	// 服务端副本写入本地后不再请求
	_, err = f.ob.Sections.Load(ctx, model.SectionVehicleDetails)
	require.NoError(t, err)
	assert.Len(t, f.api.CallsTo(apiclient.PathDriverVehicle), 1)

	d, err = f.ob.Sections.Load(ctx, model.SectionBankDetails)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", d.(*model.BankDetails).ConfirmAccountNumber)

	d, err = f.ob.Sections.Load(ctx, model.SectionEmergencyDetails)
	require.NoError(t, err)
	em := d.(*model.EmergencyDetails)
	assert.Equal(t, "9876512345", em.PrimaryContactPhone)
	assert.Equal(t, "Mother", em.PrimaryContactRelation)
	assert.Equal(t, "B+", em.BloodGroup)

	d, err = f.ob.Sections.Load(ctx, model.SectionPersonalDocuments)
	require.NoError(t, err)
	docs := d.(*model.DocumentsStatus)
	assert.True(t, docs.Aadhaar.Uploaded)
	assert.False(t, docs.PAN.Uploaded)

	// 读取服务端副本不改变完成状态
	assert.False(t, f.ob.Tracker.Record(ctx).VehicleDetails)
}

func TestLoadServerMissingReturnsEmptyDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyDriverID, "1001"))

	d, err := f.ob.Sections.Load(ctx, model.SectionBankDetails)
	require.NoError(t, err)
	assert.Equal(t, &model.BankDetails{}, d)
	assert.Len(t, f.api.CallsTo(apiclient.PathDriverBank), 1)

	_, err = f.ob.Sections.Load(ctx, model.SectionPersonalInformation)
	require.NoError(t, err)
	assert.Len(t, f.api.Calls, 1)
}

func TestReuploadUpdatesDraftPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, model.KeyDriverID, "1001"))

	docs := &model.DocumentsStatus{
		Aadhaar: model.DocumentPair{Front: "/tmp/a1.jpg", Back: "/tmp/a2.jpg"},
		PAN:     model.DocumentPair{Front: "/tmp/p1.jpg", Back: "/tmp/p2.jpg"},
		License: model.DocumentPair{Front: "/tmp/l1.jpg", Back: "/tmp/l2.jpg"},
	}
	_, err := f.ob.Sections.Save(ctx, model.SectionPersonalDocuments, docs)
	require.NoError(t, err)

	_, err = f.ob.Sections.Reupload(ctx, "pan-back", "/tmp/p2-new.jpg")
	require.NoError(t, err)
	calls := f.api.CallsTo(apiclient.PathReuploadDocument)
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]string{"pan-back": "/tmp/p2-new.jpg"}, calls[0].Body)

	_, err = f.ob.Sections.ReuploadPair(ctx, "license", "/tmp/l1-new.jpg", "/tmp/l2-new.jpg")
	require.NoError(t, err)
	require.Len(t, f.api.CallsTo(apiclient.PathReuploadPair), 1)

	d, err := f.ob.Sections.Load(ctx, model.SectionPersonalDocuments)
	require.NoError(t, err)
	stored := d.(*model.DocumentsStatus)
	assert.Equal(t, "/tmp/p2-new.jpg", stored.PAN.Back)
	assert.Equal(t, "/tmp/p1.jpg", stored.PAN.Front)
	assert.Equal(t, "/tmp/l1-new.jpg", stored.License.Front)
	assert.Equal(t, "/tmp/l2-new.jpg", stored.License.Back)
}

func TestReuploadRejectsUnknownTypeAndMissingDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ob.Sections.Reupload(ctx, "passport-front", "/tmp/x.jpg")
	assert.ErrorIs(t, err, errors.ValidationFailed)

	_, err = f.ob.Sections.Reupload(ctx, "pan-front", "/tmp/x.jpg")
	assert.ErrorIs(t, err, errors.DriverNotFound)
	assert.Empty(t, f.api.Calls)
}
