package apiclient

import (
	"context"
	"fmt"
	"sync"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/errors"
)

type MockCall struct {
	Path           string
	PhoneNumber    string
	IdempotencyKey string
	Body           interface{}
}

// MockClient 可配置的后端 mock，实现 Client 接口
type MockClient struct {
	mu    sync.Mutex
	Calls []MockCall

	// Err 非空时所有调用都返回它
	Err error
	// FailNext 非空时下一次调用返回它并自动复位
	FailNext error

	DriverID    string
	AccessToken string
	Profile     *dto.ProfileStatus
	Submitted   bool
	Status      dto.VerificationStatus
	// Remote 服务端保存的资料，为 nil 或分区为 nil 时查询返回 404
	Remote    *dto.Driver
	Documents *dto.DocumentStatus

	// OnComplete 非空时代替默认的 complete-verification 行为
	OnComplete func(ctx context.Context, req dto.CompleteVerificationRequest, key string) (*VerificationResult, error)

	Bearer  string
	Headers map[string]string
}

func NewMockClient() *MockClient {
	return &MockClient{
		DriverID:    "1001",
		AccessToken: "mock-token",
		Headers:     make(map[string]string),
	}
}

func (m *MockClient) record(call MockCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, call)
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	return m.Err
}

// CallsTo 返回某个路径的调用记录
func (m *MockClient) CallsTo(path string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MockCall
	for _, c := range m.Calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockClient) SetProfile(p *dto.ProfileStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Profile = p
}

func (m *MockClient) Health(ctx context.Context) error {
	return m.record(MockCall{Path: PathHealth})
}

func (m *MockClient) SendOTP(ctx context.Context, phoneNumber string) error {
	return m.record(MockCall{Path: PathSendOTP, PhoneNumber: phoneNumber})
}

func (m *MockClient) VerifyOTP(ctx context.Context, phoneNumber, code string) (*dto.VerifyOTPData, error) {
	if err := m.record(MockCall{Path: PathVerifyOTP, PhoneNumber: phoneNumber, Body: code}); err != nil {
		return nil, err
	}
	return &dto.VerifyOTPData{DriverID: m.DriverID, AccessToken: m.AccessToken}, nil
}

func (m *MockClient) SubmitDocuments(ctx context.Context, phoneNumber string, files map[string]string) error {
	return m.record(MockCall{Path: PathPersonalDocuments, PhoneNumber: phoneNumber, Body: files})
}

func (m *MockClient) SubmitVehicleDetails(ctx context.Context, req dto.VehicleDetailsRequest) error {
	return m.record(MockCall{Path: PathVehicleDetails, PhoneNumber: req.PhoneNumber, Body: req})
}

func (m *MockClient) SubmitBankDetails(ctx context.Context, req dto.BankDetailsRequest) error {
	return m.record(MockCall{Path: PathBankDetails, PhoneNumber: req.PhoneNumber, Body: req})
}

func (m *MockClient) SubmitEmergencyDetails(ctx context.Context, req dto.EmergencyDetailsRequest) error {
	return m.record(MockCall{Path: PathEmergencyDetails, PhoneNumber: req.PhoneNumber, Body: req})
}

func (m *MockClient) CompleteVerification(ctx context.Context, req dto.CompleteVerificationRequest, key string) (*VerificationResult, error) {
	if err := m.record(MockCall{Path: PathCompleteVerification, PhoneNumber: req.PhoneNumber, IdempotencyKey: key, Body: req}); err != nil {
		return nil, err
	}
	if m.OnComplete != nil {
		return m.OnComplete(ctx, req, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return &VerificationResult{
		Profile:   m.Profile,
		Submitted: req.Submit && m.Submitted,
	}, nil
}

func (m *MockClient) GetVerificationStatus(ctx context.Context, driverID string) (*dto.VerificationStatus, error) {
	if driverID == "" {
		return nil, errors.DriverNotFound
	}
	if err := m.record(MockCall{Path: PathVerificationStatus, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.Status
	return &st, nil
}

func notFound(path string) error {
	return &APIError{Path: path, StatusCode: 404, Message: errors.DraftNotFound.Message, Code: errors.DraftNotFound.Code}
}

func (m *MockClient) GetDriver(ctx context.Context, driverID string) (*dto.Driver, error) {
	path := fmt.Sprintf(PathDriver, driverID)
	if err := m.record(MockCall{Path: PathDriver, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Remote == nil {
		return nil, notFound(path)
	}
	d := *m.Remote
	return &d, nil
}

func (m *MockClient) GetVehicleDetails(ctx context.Context, driverID string) (*model.VehicleDetails, error) {
	if err := m.record(MockCall{Path: PathDriverVehicle, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Remote == nil || m.Remote.VehicleDetails == nil {
		return nil, notFound(fmt.Sprintf(PathDriverVehicle, driverID))
	}
	v := *m.Remote.VehicleDetails
	return &v, nil
}

func (m *MockClient) GetBankDetails(ctx context.Context, driverID string) (*model.BankDetails, error) {
	if err := m.record(MockCall{Path: PathDriverBank, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Remote == nil || m.Remote.BankDetails == nil {
		return nil, notFound(fmt.Sprintf(PathDriverBank, driverID))
	}
	b := *m.Remote.BankDetails
	return &b, nil
}

func (m *MockClient) GetEmergencyDetails(ctx context.Context, driverID string) (*dto.EmergencyDetailsRequest, error) {
	if err := m.record(MockCall{Path: PathDriverEmergency, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Remote == nil || m.Remote.EmergencyDetails == nil {
		return nil, notFound(fmt.Sprintf(PathDriverEmergency, driverID))
	}
	e := *m.Remote.EmergencyDetails
	return &e, nil
}

func (m *MockClient) GetDocumentStatus(ctx context.Context, driverID string) (*dto.DocumentStatus, error) {
	if err := m.record(MockCall{Path: PathDocumentStatus, Body: driverID}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Documents == nil {
		return nil, notFound(fmt.Sprintf(PathDocumentStatus, driverID))
	}
	st := *m.Documents
	return &st, nil
}

func (m *MockClient) ReuploadDocument(ctx context.Context, driverID, docType, path string) error {
	if !IsDocumentType(docType) {
		return errors.NewFieldError(errors.ValidationFailed, "Unknown document type", docType)
	}
	return m.record(MockCall{Path: PathReuploadDocument, Body: map[string]string{docType: path}})
}

func (m *MockClient) ReuploadPair(ctx context.Context, driverID, pair, front, back string) error {
	if !IsDocumentPair(pair) {
		return errors.NewFieldError(errors.ValidationFailed, "Unknown document type", pair)
	}
	return m.record(MockCall{Path: PathReuploadPair, Body: map[string]string{"front": front, "back": back}})
}

func (m *MockClient) SetBearer(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bearer = token
}

func (m *MockClient) SetDriverHeaders(driverID, phoneNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Headers[HeaderDriverID] = driverID
	m.Headers[HeaderPhoneNumber] = phoneNumber
}

func (m *MockClient) ClearAuth() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bearer = ""
	m.Headers = make(map[string]string)
}
