package backend

import (
	"time"

	"DriverOnboard/internal/model"
	"DriverOnboard/internal/model/dto"
)

// Driver 开发后端保存的司机资料
type Driver struct {
	ID          string                 `json:"id"`
	PhoneNumber string                 `json:"phoneNumber"`
	Completion  model.CompletionRecord `json:"completion"`
	Submitted   bool                   `json:"submitted"`
	Verified    bool                   `json:"verified"`

	Vehicle   *model.VehicleDetails        `json:"vehicle,omitempty"`
	Bank      *model.BankDetails           `json:"bank,omitempty"`
	Emergency *dto.EmergencyDetailsRequest `json:"emergency,omitempty"`
	// 表单字段名 -> 上传的文件名
	Documents map[string]string `json:"documents,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Driver) VerificationStatus() dto.VerificationStatus {
	return dto.VerificationStatus{
		PersonalInfo: d.Completion.PersonalInformation,
		Documents:    d.Completion.PersonalDocuments,
		Vehicle:      d.Completion.VehicleDetails,
		Bank:         d.Completion.BankDetails,
		Emergency:    d.Completion.EmergencyDetails,
		Overall:      d.Verified,
	}
}

// DTO GET /api/drivers/:id 的返回
func (d *Driver) DTO() *dto.Driver {
	return &dto.Driver{
		ID:                   d.ID,
		PhoneNumber:          d.PhoneNumber,
		IsCompletelyVerified: d.Verified,
		DetailsSubmitted:     d.Submitted,
		ProfileStatus:        dto.NewProfileStatus(d.Completion),
		VehicleDetails:       d.Vehicle,
		BankDetails:          d.Bank,
		EmergencyDetails:     d.Emergency,
		PersonalDocuments:    d.Documents,
	}
}

// DocumentStatus 按已上传的表单字段汇总，审核通过后全部视为已核验
func (d *Driver) DocumentStatus() *dto.DocumentStatus {
	pair := func(front, back string) dto.DocumentPairStatus {
		p := dto.DocumentPairStatus{Front: d.Documents[front] != "", Back: d.Documents[back] != ""}
		p.Verified = d.Verified && p.Front && p.Back
		return p
	}
	return &dto.DocumentStatus{
		Aadhaar: pair("aadhaarFront", "aadhaarBack"),
		PAN:     pair("panFront", "panBack"),
		License: pair("licenseFront", "licenseBack"),
	}
}

// RequiredDocuments 证件上传必填的表单字段
func RequiredDocuments() []string {
	return []string{"aadhaarFront", "aadhaarBack", "panFront", "panBack", "licenseFront", "licenseBack"}
}

// documentFields 重传接口的证件类型 -> 上传表单字段
var documentFields = map[string]string{
	"aadhaar-front": "aadhaarFront",
	"aadhaar-back":  "aadhaarBack",
	"pan-front":     "panFront",
	"pan-back":      "panBack",
	"license-front": "licenseFront",
	"license-back":  "licenseBack",
}

// DocumentField 证件类型对应的表单字段，未知类型返回 false
func DocumentField(docType string) (string, bool) {
	f, ok := documentFields[docType]
	return f, ok
}

// otpEntry 存储中的验证码
type otpEntry struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Completion complete-verification 的处理结果，同一幂等 key 重放时原样返回
type Completion struct {
	Submitted bool               `json:"submitted"`
	Message   string             `json:"message"`
	Profile   *dto.ProfileStatus `json:"profile"`
}
