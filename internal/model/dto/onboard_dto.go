package dto

import (
	"encoding/json"

	"DriverOnboard/internal/model"
)

// ========== 通用响应 ==========

// APIResponse 后端统一响应 {success, message?, data?, error?}
type APIResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`

	// 只有 complete-verification 返回
	ProfileStatus *ProfileStatus `json:"profileStatus,omitempty"`
}

// ========== Auth 相关 DTO ==========

type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
}

type VerifyOTPData struct {
	DriverID    string `json:"driverId"`
	AccessToken string `json:"accessToken,omitempty"`
	IsNewDriver bool   `json:"isNewDriver,omitempty"`
}

// ========== 分区提交 DTO ==========

type VehicleDetailsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	model.VehicleDetails
}

type BankDetailsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	model.BankDetails
}

// EmergencyDetailsRequest 后端字段名与本地草稿不同
type EmergencyDetailsRequest struct {
	PhoneNumber                  string `json:"phoneNumber"`
	PrimaryContactName           string `json:"primaryContactName"`
	PrimaryContactRelationship   string `json:"primaryContactRelationship"`
	PrimaryContactPhone          string `json:"primaryContactPhone"`
	SecondaryContactName         string `json:"secondaryContactName"`
	SecondaryContactRelationship string `json:"secondaryContactRelationship"`
	SecondaryContactPhone        string `json:"secondaryContactPhone"`
	MedicalBloodGroup            string `json:"medicalBloodGroup"`
	MedicalConditions            string `json:"medicalConditions"`
	Allergies                    string `json:"allergies"`
}

// ========== 完成状态 DTO ==========

// CompleteVerificationRequest Submit 为 false 时只查询状态
type CompleteVerificationRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Submit      bool   `json:"submit,omitempty"`
}

type CompleteVerificationData struct {
	Submitted bool `json:"submitted"`
}

// SectionStatus 为 nil 表示服务端没有返回该分区
type SectionStatus struct {
	Completed bool `json:"completed"`
}

type ProfileStatus struct {
	PersonalInfo      *SectionStatus `json:"personalInfo,omitempty"`
	PersonalDocuments *SectionStatus `json:"personalDocuments,omitempty"`
	VehicleDetails    *SectionStatus `json:"vehicleDetails,omitempty"`
	BankDetails       *SectionStatus `json:"bankDetails,omitempty"`
	EmergencyDetails  *SectionStatus `json:"emergencyDetails,omitempty"`
}

// Reported 返回服务端报告的分区及其完成状态
func (p ProfileStatus) Reported() map[model.Section]bool {
	out := make(map[model.Section]bool, 5)
	add := func(s model.Section, st *SectionStatus) {
		if st != nil {
			out[s] = st.Completed
		}
	}
	add(model.SectionPersonalInformation, p.PersonalInfo)
	add(model.SectionPersonalDocuments, p.PersonalDocuments)
	add(model.SectionVehicleDetails, p.VehicleDetails)
	add(model.SectionBankDetails, p.BankDetails)
	add(model.SectionEmergencyDetails, p.EmergencyDetails)
	return out
}

// NewProfileStatus 开发后端根据完成记录生成响应
func NewProfileStatus(r model.CompletionRecord) *ProfileStatus {
	st := func(b bool) *SectionStatus { return &SectionStatus{Completed: b} }
	return &ProfileStatus{
		PersonalInfo:      st(r.PersonalInformation),
		PersonalDocuments: st(r.PersonalDocuments),
		VehicleDetails:    st(r.VehicleDetails),
		BankDetails:       st(r.BankDetails),
		EmergencyDetails:  st(r.EmergencyDetails),
	}
}

// VerificationStatus GET /api/drivers/{id}/verification-status
type VerificationStatus struct {
	PersonalInfo bool `json:"personalInfo"`
	Documents    bool `json:"documents"`
	Vehicle      bool `json:"vehicle"`
	Bank         bool `json:"bank"`
	Emergency    bool `json:"emergency"`
	Overall      bool `json:"overall"`
}

type HealthData struct {
	Status string `json:"status"`
}

// ========== 司机资料查询 DTO ==========

// Driver GET /api/drivers/{id}，未保存过的分区为 nil
type Driver struct {
	ID                   string                   `json:"id"`
	PhoneNumber          string                   `json:"phoneNumber"`
	IsCompletelyVerified bool                     `json:"isCompletelyVerified"`
	DetailsSubmitted     bool                     `json:"detailsSubmitted"`
	ProfileStatus        *ProfileStatus           `json:"profileStatus,omitempty"`
	VehicleDetails       *model.VehicleDetails    `json:"vehicleDetails,omitempty"`
	BankDetails          *model.BankDetails       `json:"bankDetails,omitempty"`
	EmergencyDetails     *EmergencyDetailsRequest `json:"emergencyDetails,omitempty"`
	// 表单字段名 -> 服务端保存的文件名
	PersonalDocuments map[string]string `json:"personalDocuments,omitempty"`
}

type DocumentPairStatus struct {
	Front    bool `json:"front"`
	Back     bool `json:"back"`
	Verified bool `json:"verified"`
}

type ProfilePictureStatus struct {
	Uploaded bool `json:"uploaded"`
}

// DocumentStatus GET /api/documents/{id}/document-status
type DocumentStatus struct {
	Aadhaar DocumentPairStatus   `json:"aadhaar"`
	PAN     DocumentPairStatus   `json:"pan"`
	License DocumentPairStatus   `json:"license"`
	Profile ProfilePictureStatus `json:"profile"`
}
