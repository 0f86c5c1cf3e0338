package apiclient

import (
	"context"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
)

// 后端接口路径
const (
	PathHealth               = "/health"
	PathSendOTP              = "/api/auth/send-otp"
	PathVerifyOTP            = "/api/auth/verify-otp"
	PathPersonalDocuments    = "/api/auth/personal-documents"
	PathVehicleDetails       = "/api/auth/vehicle-details"
	PathBankDetails          = "/api/auth/bank-details"
	PathEmergencyDetails     = "/api/auth/emergency-details"
	PathCompleteVerification = "/api/auth/complete-verification"
	PathVerificationStatus   = "/api/drivers/%s/verification-status"

	// 司机资料查询及证件重传，%s 为 driverId
	PathDriver           = "/api/drivers/%s"
	PathDriverVehicle    = "/api/drivers/%s/vehicle"
	PathDriverBank       = "/api/drivers/%s/bank"
	PathDriverEmergency  = "/api/drivers/%s/emergency"
	PathDocumentStatus   = "/api/documents/%s/document-status"
	PathReuploadDocument = "/api/documents/%s/reupload/%s"
	PathReuploadPair     = "/api/documents/%s/reupload-pair/%s"
)

// 重传接口的证件类型
var (
	DocumentTypes = []string{"aadhaar-front", "aadhaar-back", "pan-front", "pan-back", "license-front", "license-back"}
	DocumentPairs = []string{"aadhaar", "pan", "license"}
)

// IsDocumentType 判断单张重传的证件类型
func IsDocumentType(t string) bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

func IsDocumentPair(p string) bool {
	for _, v := range DocumentPairs {
		if v == p {
			return true
		}
	}
	return false
}

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderDriverID       = "x-driver-id"
	HeaderPhoneNumber    = "x-phone-number"
)

// Client 后端 REST 接口
type Client interface {
	Health(ctx context.Context) error

	SendOTP(ctx context.Context, phoneNumber string) error
	VerifyOTP(ctx context.Context, phoneNumber, code string) (*dto.VerifyOTPData, error)

	// SubmitDocuments files 的 key 为表单字段名，value 为本地文件路径
	SubmitDocuments(ctx context.Context, phoneNumber string, files map[string]string) error
	SubmitVehicleDetails(ctx context.Context, req dto.VehicleDetailsRequest) error
	SubmitBankDetails(ctx context.Context, req dto.BankDetailsRequest) error
	SubmitEmergencyDetails(ctx context.Context, req dto.EmergencyDetailsRequest) error

	// CompleteVerification idempotencyKey 为空时不发送 Idempotency-Key
	CompleteVerification(ctx context.Context, req dto.CompleteVerificationRequest, idempotencyKey string) (*VerificationResult, error)
	GetVerificationStatus(ctx context.Context, driverID string) (*dto.VerificationStatus, error)

	// 服务端保存的资料，分区不存在时返回 StatusCode 为 404 的 *APIError
	GetDriver(ctx context.Context, driverID string) (*dto.Driver, error)
	GetVehicleDetails(ctx context.Context, driverID string) (*model.VehicleDetails, error)
	GetBankDetails(ctx context.Context, driverID string) (*model.BankDetails, error)
	GetEmergencyDetails(ctx context.Context, driverID string) (*dto.EmergencyDetailsRequest, error)
	GetDocumentStatus(ctx context.Context, driverID string) (*dto.DocumentStatus, error)

	// ReuploadDocument docType 取自 DocumentTypes，表单字段为 document
	ReuploadDocument(ctx context.Context, driverID, docType, path string) error
	// ReuploadPair 同时重传正反面，表单字段为 front 和 back
	ReuploadPair(ctx context.Context, driverID, pair, front, back string) error

	SetBearer(token string)
	SetDriverHeaders(driverID, phoneNumber string)
	ClearAuth()
}

// VerificationResult complete-verification 的结果
type VerificationResult struct {
	Profile   *dto.ProfileStatus
	Submitted bool
	Message   string
}
