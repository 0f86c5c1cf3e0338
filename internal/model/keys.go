package model

// 本地存储 key，与移动端保持一致
const (
	KeyCompletionStatus    = "document_completion_status"
	KeyPersonalInformation = "personal_information"
	KeyVehicleDetails      = "vehicle_details"
	KeyBankDetails         = "bank_details"
	KeyEmergencyDetails    = "emergency_details"
	KeyDocumentsStatus     = "documents_status"

	KeyPhoneNumber   = "phoneNumber"
	KeyDriverID      = "driverId"
	KeyDetailsSubmit = "detailsSubmit"
	KeyIsVerified    = "isVerified"
	KeyAccessToken   = "accessToken"
)

// SessionKeys 登出或没有 driverId 时需要清理的 key
func SessionKeys() []string {
	return []string{
		KeyCompletionStatus,
		KeyPersonalInformation,
		KeyVehicleDetails,
		KeyBankDetails,
		KeyEmergencyDetails,
		KeyDocumentsStatus,
		KeyPhoneNumber,
		KeyDriverID,
		KeyDetailsSubmit,
		KeyIsVerified,
		KeyAccessToken,
	}
}
