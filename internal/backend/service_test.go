package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/snowflake"
	"DriverOnboard/pkg/token"
	"DriverOnboard/storage/kv"
)

const devPhone = "+919876543210"

func newService(t *testing.T, mutate ...func(*Options)) *Service {
	t.Helper()

	ids, err := snowflake.New(1, 1)
	require.NoError(t, err)

	opts := Options{Region: "IN", OTPCode: "123456", OTPTTL: time.Minute, OTPDaily: 3}
	for _, m := range mutate {
		m(&opts)
	}
	return New(kv.NewMemory(), ids, token.New("secret", time.Hour), opts)
}

func login(t *testing.T, s *Service) *dto.VerifyOTPData {
	t.Helper()
	ctx := context.Background()

	code, err := s.SendOTP(ctx, "9876543210")
	require.NoError(t, err)
	data, err := s.VerifyOTP(ctx, devPhone, code)
	require.NoError(t, err)
	return data
}

func completeSections(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.SaveVehicle(ctx, dto.VehicleDetailsRequest{
		PhoneNumber:    devPhone,
		VehicleDetails: model.VehicleDetails{Type: "Bike", Model: "Splendor", Manufacturer: "Hero", PlateNumber: "KA01AB1234"},
	}))
	require.NoError(t, s.SaveBank(ctx, dto.BankDetailsRequest{
		PhoneNumber: devPhone,
		BankDetails: model.BankDetails{
			AccountHolderName:    "Ravi Kumar",
			AccountNumber:        "123456789012",
			ConfirmAccountNumber: "123456789012",
			IFSCCode:             "SBIN0001234",
		},
	}))
	require.NoError(t, s.SaveEmergency(ctx, dto.EmergencyDetailsRequest{
		PhoneNumber:                devPhone,
		PrimaryContactName:         "Sita",
		PrimaryContactRelationship: "Mother",
		PrimaryContactPhone:        "+919876512345",
	}))

	files := make(map[string]string)
	for _, f := range RequiredDocuments() {
		files[f] = f + ".jpg"
	}
	require.NoError(t, s.SaveDocuments(ctx, devPhone, files))
}

func TestVerifyOTPCreatesDriverOnce(t *testing.T) {
	s := newService(t)

	first := login(t, s)
	assert.True(t, first.IsNewDriver)
	assert.NotEmpty(t, first.DriverID)
	assert.NotEmpty(t, first.AccessToken)

	second := login(t, s)
	assert.False(t, second.IsNewDriver)
	assert.Equal(t, first.DriverID, second.DriverID)

	st, err := s.VerificationStatus(context.Background(), first.DriverID)
	require.NoError(t, err)
	assert.True(t, st.PersonalInfo)
	assert.False(t, st.Overall)
}

func TestVerifyOTPRejectsWrongOrReusedCode(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.SendOTP(ctx, "9876543210")
	require.NoError(t, err)

	_, err = s.VerifyOTP(ctx, devPhone, "654321")
	assert.ErrorIs(t, err, errors.OTPInvalid)

	_, err = s.VerifyOTP(ctx, devPhone, "123456")
	require.NoError(t, err)

	_, err = s.VerifyOTP(ctx, devPhone, "123456")
	assert.ErrorIs(t, err, errors.OTPInvalid)
}

func TestVerifyOTPExpires(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.SendOTP(ctx, "9876543210")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.VerifyOTP(ctx, devPhone, "123456")
	assert.ErrorIs(t, err, errors.OTPInvalid)
}

func TestSendOTPDailyLimit(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SendOTP(ctx, "9876543210")
		require.NoError(t, err)
	}
	_, err := s.SendOTP(ctx, "9876543210")
	assert.ErrorIs(t, err, errors.OTPRateLimited)
}

func TestSendOTPRandomCode(t *testing.T) {
	s := newService(t, func(o *Options) { o.OTPCode = "" })

	code, err := s.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)
}

func TestSectionsRequireKnownDriver(t *testing.T) {
	s := newService(t)

	err := s.SaveDocuments(context.Background(), devPhone, map[string]string{
		"aadhaarFront": "a", "aadhaarBack": "b", "panFront": "c",
		"panBack": "d", "licenseFront": "e", "licenseBack": "f",
	})
	assert.ErrorIs(t, err, errors.DriverNotFound)
}

func TestSectionValidation(t *testing.T) {
	s := newService(t)
	login(t, s)
	ctx := context.Background()

	err := s.SaveBank(ctx, dto.BankDetailsRequest{
		PhoneNumber: devPhone,
		BankDetails: model.BankDetails{AccountHolderName: "x", AccountNumber: "1", ConfirmAccountNumber: "2", IFSCCode: "SBIN0001234"},
	})
	assert.ErrorIs(t, err, errors.ValidationFailed)

	err = s.SaveEmergency(ctx, dto.EmergencyDetailsRequest{PhoneNumber: devPhone, PrimaryContactName: "Sita"})
	var fe *errors.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, []string{"primaryContactRelationship", "primaryContactPhone"}, fe.Fields)

	err = s.SaveDocuments(ctx, devPhone, map[string]string{"aadhaarFront": "a"})
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe.Fields, 5)
}

func TestCompleteVerificationQueryAndSubmit(t *testing.T) {
	s := newService(t)
	data := login(t, s)
	ctx := context.Background()

	res, err := s.CompleteVerification(ctx, devPhone, true, "k1")
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, incompleteMessage, res.Message)
	assert.False(t, res.Profile.BankDetails.Completed)

	completeSections(t, s)

	res, err = s.CompleteVerification(ctx, devPhone, false, "")
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.True(t, res.Profile.BankDetails.Completed)

	res, err = s.CompleteVerification(ctx, devPhone, true, "k2")
	require.NoError(t, err)
	assert.True(t, res.Submitted)

	st, err := s.VerificationStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.True(t, st.Bank)
	assert.False(t, st.Overall)

	require.NoError(t, s.Approve(ctx, data.DriverID))
	st, err = s.VerificationStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.True(t, st.Overall)
}

func TestCompleteVerificationReplaysIdempotencyKey(t *testing.T) {
	s := newService(t)
	login(t, s)
	completeSections(t, s)
	ctx := context.Background()

	first, err := s.CompleteVerification(ctx, devPhone, true, "same-key")
	require.NoError(t, err)

	// 清空存储中的司机，重放仍返回第一次的结果
	require.NoError(t, s.store.Remove(ctx, driverKey(devPhone)))
	again, err := s.CompleteVerification(ctx, devPhone, true, "same-key")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = s.CompleteVerification(ctx, devPhone, true, "other-key")
	assert.ErrorIs(t, err, errors.DriverNotFound)
}

func TestApproveRequiresSubmission(t *testing.T) {
	s := newService(t)
	data := login(t, s)

	err := s.Approve(context.Background(), data.DriverID)
	assert.ErrorIs(t, err, errors.SectionIncomplete)

	err = s.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.DriverNotFound)
}

func TestDriverSectionsReadBack(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	data := login(t, s)

	_, err := s.Vehicle(ctx, data.DriverID)
	assert.ErrorIs(t, err, errors.DraftNotFound)

	completeSections(t, s)

	v, err := s.Vehicle(ctx, data.DriverID)
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", v.PlateNumber)

	b, err := s.Bank(ctx, data.DriverID)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", b.AccountNumber)

	e, err := s.Emergency(ctx, data.DriverID)
	require.NoError(t, err)
	assert.Equal(t, "Mother", e.PrimaryContactRelationship)

	d, err := s.Driver(ctx, data.DriverID)
	require.NoError(t, err)
	assert.Equal(t, devPhone, d.PhoneNumber)
	assert.True(t, d.ProfileStatus.BankDetails.Completed)
	assert.Len(t, d.PersonalDocuments, len(RequiredDocuments()))

	_, err = s.Driver(ctx, "missing")
	assert.ErrorIs(t, err, errors.DriverNotFound)
}

func TestReuploadDocuments(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	data := login(t, s)

	require.NoError(t, s.ReuploadDocuments(ctx, data.DriverID, map[string]string{
		"pan-front": "pan-front.jpg",
		"pan-back":  "pan-back.jpg",
	}))
	st, err := s.DocumentStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.Equal(t, dto.DocumentPairStatus{Front: true, Back: true}, st.PAN)
	assert.False(t, st.Aadhaar.Front)

	// 只有部分证件时分区未完成
	vs, err := s.VerificationStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.False(t, vs.Documents)

	completeSections(t, s)
	_, err = s.CompleteVerification(ctx, devPhone, true, "")
	require.NoError(t, err)
	require.NoError(t, s.Approve(ctx, data.DriverID))
	st, err = s.DocumentStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.True(t, st.License.Verified)

	require.NoError(t, s.ReuploadDocuments(ctx, data.DriverID, map[string]string{"license-back": "new.jpg"}))
	st, err = s.DocumentStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.False(t, st.License.Verified)
	vs, err = s.VerificationStatus(ctx, data.DriverID)
	require.NoError(t, err)
	assert.True(t, vs.Documents)
	assert.False(t, vs.Overall)

	err = s.ReuploadDocuments(ctx, data.DriverID, map[string]string{"passport-front": "x.jpg"})
	assert.ErrorIs(t, err, errors.ValidationFailed)
}
