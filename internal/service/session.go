package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/validate"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/phone"
	"DriverOnboard/storage/kv"
)

// SessionService 手机号验证、启动路由和登出
type SessionService struct {
	api     apiclient.Client
	store   kv.Store
	tracker *CompletionTracker
	gate    *SubmissionGate
	region  string
}

func NewSessionService(api apiclient.Client, store kv.Store, tracker *CompletionTracker, gate *SubmissionGate, region string) *SessionService {
	return &SessionService{
		api:     api,
		store:   store,
		tracker: tracker,
		gate:    gate,
		region:  region,
	}
}

// SendOTP number 为不带区号的 10 位手机号，需同意用户协议
func (s *SessionService) SendOTP(ctx context.Context, number string, acceptedTerms bool) error {
	if !phone.IsMobile10(number) {
		return errors.NewFieldError(errors.PhoneInvalid, "", "phoneNumber")
	}
	if !acceptedTerms {
		return errors.NewFieldError(errors.TermsNotAccepted, "", "terms")
	}

	id, err := phone.Normalize(number, s.region)
	if err != nil {
		return errors.NewFieldError(errors.PhoneInvalid, "", "phoneNumber")
	}

	if err := s.api.SendOTP(ctx, id); err != nil {
		return err
	}

	if err := s.store.Set(ctx, model.KeyPhoneNumber, id); err != nil {
		return fmt.Errorf("save phone number: %w: %w", errors.StorageWriteFailed, err)
	}

	logger.Logger.Info("OTP sent", zap.String("phone", maskPhone(id)))
	return nil
}

// VerifyOTP 验证通过后保存 driverId，创建完成记录并返回注册入口
func (s *SessionService) VerifyOTP(ctx context.Context, code string) (model.LaunchDecision, error) {
	if !validate.IsOTP(code) {
		return model.LaunchDecision{}, errors.NewFieldError(errors.OTPInvalid, "Please enter the 6-digit OTP", "code")
	}

	id, err := s.store.Get(ctx, model.KeyPhoneNumber)
	if err != nil || id == "" {
		return model.LaunchDecision{}, errors.PhoneNumberMissing
	}

	data, err := s.api.VerifyOTP(ctx, id, code)
	if err != nil {
		return model.LaunchDecision{}, err
	}

	values := map[string]string{model.KeyDriverID: data.DriverID}
	if data.AccessToken != "" {
		values[model.KeyAccessToken] = data.AccessToken
	}
	if err := s.store.MultiSet(ctx, values); err != nil {
		return model.LaunchDecision{}, fmt.Errorf("save session: %w: %w", errors.StorageWriteFailed, err)
	}

	s.api.SetBearer(data.AccessToken)
	s.api.SetDriverHeaders(data.DriverID, id)

	logger.Logger.Info("Driver verified", zap.String("driver_id", data.DriverID))

	rec := s.tracker.Ensure(ctx)
	return registrationDecision(rec), nil
}

func (s *SessionService) load(ctx context.Context) (map[string]string, error) {
	values, err := s.store.MultiGet(ctx, []string{
		model.KeyDriverID,
		model.KeyIsVerified,
		model.KeyDetailsSubmit,
		model.KeyPhoneNumber,
		model.KeyAccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w: %w", errors.StorageReadFailed, err)
	}
	return values, nil
}

// Restore 把本地保存的认证信息恢复到 API 客户端，不做任何清理。
// 返回 false 表示还没有完成手机号验证。
func (s *SessionService) Restore(ctx context.Context) (bool, error) {
	values, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	driverID := values[model.KeyDriverID]
	if driverID == "" {
		return false, nil
	}
	s.api.SetBearer(values[model.KeyAccessToken])
	s.api.SetDriverHeaders(driverID, values[model.KeyPhoneNumber])
	return true, nil
}

// Launch 根据本地会话决定启动后进入的页面
func (s *SessionService) Launch(ctx context.Context) (model.LaunchDecision, error) {
	values, err := s.load(ctx)
	if err != nil {
		return model.LaunchDecision{Route: model.RoutePhoneEntry}, err
	}

	driverID := values[model.KeyDriverID]
	if driverID == "" {
		s.clearSession(ctx)
		return model.LaunchDecision{Route: model.RoutePhoneEntry}, nil
	}

	s.api.SetBearer(values[model.KeyAccessToken])
	s.api.SetDriverHeaders(driverID, values[model.KeyPhoneNumber])

	switch {
	case values[model.KeyIsVerified] == "true":
		return model.LaunchDecision{Route: model.RouteMain}, nil
	case values[model.KeyDetailsSubmit] == "true":
		return model.LaunchDecision{Route: model.RoutePendingVerification}, nil
	}

	return registrationDecision(s.tracker.Record(ctx)), nil
}

// RefreshVerification 查询后台审核状态，审核通过后写入 isVerified
func (s *SessionService) RefreshVerification(ctx context.Context) (bool, error) {
	driverID, err := s.store.Get(ctx, model.KeyDriverID)
	if err != nil || driverID == "" {
		return false, errors.DriverNotFound
	}

	st, err := s.api.GetVerificationStatus(ctx, driverID)
	if err != nil {
		return false, err
	}
	if !st.Overall {
		return false, nil
	}

	if err := s.store.Set(ctx, model.KeyIsVerified, "true"); err != nil {
		return true, fmt.Errorf("save verification flag: %w: %w", errors.StorageWriteFailed, err)
	}
	return true, nil
}

// Logout 清空本地存储并重置内存状态
func (s *SessionService) Logout(ctx context.Context) error {
	err := s.store.Clear(context.WithoutCancel(ctx))

	s.tracker.Reset()
	s.gate.Reset()
	s.api.ClearAuth()

	if err != nil {
		return fmt.Errorf("clear session: %w: %w", errors.StorageWriteFailed, err)
	}
	logger.Logger.Info("Session cleared")
	return nil
}

func (s *SessionService) clearSession(ctx context.Context) {
	for _, k := range model.SessionKeys() {
		if err := s.store.Remove(ctx, k); err != nil {
			logger.Logger.Warn("Failed to clear session key", zap.String("key", k), zap.Error(err))
		}
	}
	s.tracker.Reset()
	s.gate.Reset()
	s.api.ClearAuth()
}

func registrationDecision(rec model.CompletionRecord) model.LaunchDecision {
	if pending := rec.Pending(); len(pending) > 0 {
		return model.LaunchDecision{Route: model.RouteRegistration, Section: pending[0]}
	}
	return model.LaunchDecision{Route: model.RouteReview}
}

func maskPhone(p string) string {
	if len(p) <= 4 {
		return p
	}
	return "******" + p[len(p)-4:]
}
