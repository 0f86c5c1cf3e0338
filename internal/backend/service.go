package backend

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/internal/validate"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/phone"
	"DriverOnboard/pkg/snowflake"
	"DriverOnboard/pkg/token"
	"DriverOnboard/storage/kv"
)

const (
	completeMessage   = "Verification completed successfully"
	incompleteMessage = "Please complete all registration sections"
)

type Options struct {
	Region   string
	OTPCode  string // 非空时固定验证码
	OTPTTL   time.Duration
	OTPDaily int
}

// Service 开发后端：司机资料和验证码都保存在 kv.Store 里
type Service struct {
	store  kv.Store
	ids    *snowflake.Generator
	tokens *token.Generator
	opts   Options

	// 读改写串行化
	mu  sync.Mutex
	now func() time.Time
}

func New(store kv.Store, ids *snowflake.Generator, tokens *token.Generator, opts Options) *Service {
	if opts.Region == "" {
		opts.Region = "IN"
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.OTPDaily <= 0 {
		opts.OTPDaily = 10
	}
	return &Service{store: store, ids: ids, tokens: tokens, opts: opts, now: time.Now}
}

func driverKey(phone string) string { return "driver:" + phone }

func driverIDKey(id string) string { return "driver_id:" + id }

func otpKey(phone string) string { return "otp:" + phone }

func otpCountKey(phone, day string) string { return "otp_count:" + phone + ":" + day }

func idempotencyKey(key string) string { return "idempotency:" + key }

func generateOTPCode() string {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func (s *Service) normalize(raw string) (string, error) {
	id, err := phone.Normalize(raw, s.opts.Region)
	if err != nil {
		return "", errors.NewFieldError(errors.PhoneInvalid, "", "phoneNumber")
	}
	return id, nil
}

// SendOTP 生成验证码，返回验证码供开发环境打印
func (s *Service) SendOTP(ctx context.Context, rawPhone string) (string, error) {
	id, err := s.normalize(rawPhone)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	countKey := otpCountKey(id, s.now().Format("20060102"))
	count := 0
	if v, err := s.store.Get(ctx, countKey); err == nil {
		count, _ = strconv.Atoi(v)
	} else if !kv.IsNotFound(err) {
		return "", fmt.Errorf("failed to check otp count: %w", err)
	}
	count++
	if count > s.opts.OTPDaily {
		return "", errors.OTPRateLimited
	}

	code := s.opts.OTPCode
	if code == "" {
		code = generateOTPCode()
	}

	raw, err := json.Marshal(otpEntry{Code: code, ExpiresAt: s.now().Add(s.opts.OTPTTL)})
	if err != nil {
		return "", err
	}
	if err := s.store.MultiSet(ctx, map[string]string{
		countKey:   strconv.Itoa(count),
		otpKey(id): string(raw),
	}); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}

	return code, nil
}

// VerifyOTP 校验通过后删除验证码，不存在的司机自动创建。
// 个人信息没有单独的接口，验证通过即视为完成。
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, code string) (*dto.VerifyOTPData, error) {
	id, err := s.normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	if !validate.IsOTP(code) {
		return nil, errors.NewFieldError(errors.OTPInvalid, "", "code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, otpKey(id))
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, errors.OTPInvalid
		}
		return nil, fmt.Errorf("failed to get otp: %w", err)
	}

	var entry otpEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || s.now().After(entry.ExpiresAt) {
		_ = s.store.Remove(ctx, otpKey(id))
		return nil, errors.OTPInvalid
	}
	if entry.Code != code {
		return nil, errors.OTPInvalid
	}
	_ = s.store.Remove(ctx, otpKey(id))

	d, err := s.loadDriver(ctx, id)
	isNew := false
	switch {
	case err == nil:
	case stderrors.Is(err, errors.DriverNotFound):
		isNew = true
		d = &Driver{
			ID:          s.ids.NextID(),
			PhoneNumber: id,
			CreatedAt:   s.now(),
		}
	default:
		return nil, err
	}

	d.Completion.PersonalInformation = true
	if err := s.saveDriver(ctx, d, isNew); err != nil {
		return nil, err
	}

	accessToken, _, err := s.tokens.Generate(d.ID, id)
	if err != nil {
		return nil, err
	}

	logger.Logger.Info("Driver verified",
		zap.String("driver_id", d.ID),
		zap.Bool("new_driver", isNew),
	)
	return &dto.VerifyOTPData{DriverID: d.ID, AccessToken: accessToken, IsNewDriver: isNew}, nil
}

func (s *Service) SaveVehicle(ctx context.Context, req dto.VehicleDetailsRequest) error {
	v := req.VehicleDetails
	if err := validate.Section(model.SectionVehicleDetails, &v); err != nil {
		return err
	}
	return s.update(ctx, req.PhoneNumber, func(d *Driver) error {
		d.Vehicle = &v
		d.Completion.VehicleDetails = true
		return nil
	})
}

func (s *Service) SaveBank(ctx context.Context, req dto.BankDetailsRequest) error {
	b := req.BankDetails
	if err := validate.Section(model.SectionBankDetails, &b); err != nil {
		return err
	}
	return s.update(ctx, req.PhoneNumber, func(d *Driver) error {
		d.Bank = &b
		d.Completion.BankDetails = true
		return nil
	})
}

func (s *Service) SaveEmergency(ctx context.Context, req dto.EmergencyDetailsRequest) error {
	required := []struct{ field, value string }{
		{"primaryContactName", req.PrimaryContactName},
		{"primaryContactRelationship", req.PrimaryContactRelationship},
		{"primaryContactPhone", req.PrimaryContactPhone},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return errors.NewFieldError(errors.ValidationFailed, "", missing...)
	}

	return s.update(ctx, req.PhoneNumber, func(d *Driver) error {
		r := req
		d.Emergency = &r
		d.Completion.EmergencyDetails = true
		return nil
	})
}

// SaveDocuments files 为表单字段名到文件名的映射
func (s *Service) SaveDocuments(ctx context.Context, rawPhone string, files map[string]string) error {
	var missing []string
	for _, f := range RequiredDocuments() {
		if files[f] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return errors.NewFieldError(errors.ValidationFailed, "", missing...)
	}

	return s.update(ctx, rawPhone, func(d *Driver) error {
		d.Documents = files
		d.Completion.PersonalDocuments = true
		return nil
	})
}

// CompleteVerification submit 为 false 时只返回当前状态；
// 同一个幂等 key 的重复提交直接返回第一次的结果
func (s *Service) CompleteVerification(ctx context.Context, rawPhone string, submit bool, key string) (*Completion, error) {
	id, err := s.normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if submit && key != "" {
		if raw, err := s.store.Get(ctx, idempotencyKey(key)); err == nil {
			var replay Completion
			if err := json.Unmarshal([]byte(raw), &replay); err == nil {
				logger.Logger.Debug("Replaying completion", zap.String("idempotency_key", key))
				return &replay, nil
			}
		}
	}

	d, err := s.loadDriver(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &Completion{Submitted: d.Submitted, Profile: dto.NewProfileStatus(d.Completion)}
	if !submit {
		return out, nil
	}

	if !d.Completion.IsFullyComplete() {
		out.Message = incompleteMessage
		return out, nil
	}

	if !d.Submitted {
		d.Submitted = true
		if err := s.saveDriver(ctx, d, false); err != nil {
			return nil, err
		}
	}
	out.Submitted = true
	out.Message = completeMessage

	if key != "" {
		if raw, err := json.Marshal(out); err == nil {
			if err := s.store.Set(ctx, idempotencyKey(key), string(raw)); err != nil {
				logger.Logger.Warn("Failed to store idempotency record", zap.Error(err))
			}
		}
	}
	return out, nil
}

func (s *Service) VerificationStatus(ctx context.Context, driverID string) (*dto.VerificationStatus, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	st := d.VerificationStatus()
	return &st, nil
}

func (s *Service) Driver(ctx context.Context, driverID string) (*dto.Driver, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return d.DTO(), nil
}

// Vehicle 未保存过时返回 DraftNotFound
func (s *Service) Vehicle(ctx context.Context, driverID string) (*model.VehicleDetails, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.Vehicle == nil {
		return nil, errors.DraftNotFound
	}
	return d.Vehicle, nil
}

func (s *Service) Bank(ctx context.Context, driverID string) (*model.BankDetails, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.Bank == nil {
		return nil, errors.DraftNotFound
	}
	return d.Bank, nil
}

func (s *Service) Emergency(ctx context.Context, driverID string) (*dto.EmergencyDetailsRequest, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.Emergency == nil {
		return nil, errors.DraftNotFound
	}
	return d.Emergency, nil
}

func (s *Service) DocumentStatus(ctx context.Context, driverID string) (*dto.DocumentStatus, error) {
	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return d.DocumentStatus(), nil
}

// ReuploadDocuments files 为证件类型（如 pan-back）到文件名的映射。
// 重传会清除审核结果，六张齐全时证件分区视为完成
func (s *Service) ReuploadDocuments(ctx context.Context, driverID string, files map[string]string) error {
	fields := make(map[string]string, len(files))
	for docType, name := range files {
		field, ok := DocumentField(docType)
		if !ok {
			return errors.NewFieldError(errors.ValidationFailed, "Unknown document type", docType)
		}
		if name == "" {
			return errors.NewFieldError(errors.ValidationFailed, "", docType)
		}
		fields[field] = name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return err
	}
	if d.Documents == nil {
		d.Documents = make(map[string]string, len(fields))
	}
	for field, name := range fields {
		d.Documents[field] = name
	}

	complete := true
	for _, f := range RequiredDocuments() {
		if d.Documents[f] == "" {
			complete = false
			break
		}
	}
	d.Completion.PersonalDocuments = complete
	d.Verified = false
	return s.saveDriver(ctx, d, false)
}

// Approve 模拟后台审核通过，只有已提交的司机可以审核
func (s *Service) Approve(ctx context.Context, driverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.driverByID(ctx, driverID)
	if err != nil {
		return err
	}
	if !d.Submitted {
		return errors.NewFieldError(errors.SectionIncomplete, "Driver has not submitted registration")
	}
	d.Verified = true
	return s.saveDriver(ctx, d, false)
}

func (s *Service) update(ctx context.Context, rawPhone string, fn func(*Driver) error) error {
	id, err := s.normalize(rawPhone)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.loadDriver(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	return s.saveDriver(ctx, d, false)
}

func (s *Service) driverByID(ctx context.Context, driverID string) (*Driver, error) {
	p, err := s.store.Get(ctx, driverIDKey(driverID))
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, errors.DriverNotFound
		}
		return nil, fmt.Errorf("failed to get driver index: %w", err)
	}
	return s.loadDriver(ctx, p)
}

func (s *Service) loadDriver(ctx context.Context, phone string) (*Driver, error) {
	raw, err := s.store.Get(ctx, driverKey(phone))
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, errors.DriverNotFound
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	var d Driver
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("failed to decode driver: %w", err)
	}
	return &d, nil
}

func (s *Service) saveDriver(ctx context.Context, d *Driver, withIndex bool) error {
	d.UpdatedAt = s.now()
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}

	values := map[string]string{driverKey(d.PhoneNumber): string(raw)}
	if withIndex {
		values[driverIDKey(d.ID)] = d.PhoneNumber
	}
	if err := s.store.MultiSet(ctx, values); err != nil {
		return fmt.Errorf("failed to save driver: %w", err)
	}
	return nil
}
