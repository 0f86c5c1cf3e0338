package model

import "strings"

// 各分区草稿。validate 标签由 internal/validate 解析，yaml 标签供 CLI 读取输入文件

// PersonalInfo 个人信息，只保存在本地
type PersonalInfo struct {
	FirstName       string   `json:"firstName" yaml:"firstName" validate:"required"`
	LastName        string   `json:"lastName" yaml:"lastName" validate:"required"`
	FatherName      string   `json:"fatherName" yaml:"fatherName" validate:"required"`
	DateOfBirth     string   `json:"dateOfBirth" yaml:"dateOfBirth" validate:"required,dob21"` // DD - MM - YYYY
	PrimaryMobile   string   `json:"primaryMobile" yaml:"primaryMobile" validate:"required,mobile10"`
	WhatsappNumber  string   `json:"whatsappNumber" yaml:"whatsappNumber" validate:"omitempty,mobile10"`
	SecondaryMobile string   `json:"secondaryMobile" yaml:"secondaryMobile" validate:"omitempty,mobile10"`
	BloodGroup      string   `json:"bloodGroup" yaml:"bloodGroup" validate:"required,bloodgroup"`
	Address         string   `json:"address" yaml:"address" validate:"required"`
	Languages       []string `json:"languages" yaml:"languages" validate:"required,min=1,dive,required"`
	ReferralCode    string   `json:"referralCode" yaml:"referralCode"`
	ProfileImage    string   `json:"profileImage,omitempty" yaml:"profileImage"`
}

type VehicleDetails struct {
	Type              string `json:"type" yaml:"type" validate:"required"`
	Model             string `json:"model" yaml:"model" validate:"required"`
	Manufacturer      string `json:"manufacturer" yaml:"manufacturer" validate:"required"`
	Color             string `json:"color" yaml:"color"`
	PlateNumber       string `json:"plateNumber" yaml:"plateNumber" validate:"required"`
	YearOfManufacture string `json:"yearOfManufacture" yaml:"yearOfManufacture" validate:"omitempty,numeric,len=4"`
}

type BankDetails struct {
	AccountHolderName    string `json:"accountHolderName" yaml:"accountHolderName" validate:"required"`
	AccountNumber        string `json:"accountNumber" yaml:"accountNumber" validate:"required,numeric"`
	ConfirmAccountNumber string `json:"confirmAccountNumber" yaml:"confirmAccountNumber" validate:"required,eqfield=AccountNumber"`
	IFSCCode             string `json:"ifscCode" yaml:"ifscCode" validate:"required,ifsc"`
	BankName             string `json:"bankName" yaml:"bankName"`
	BranchName           string `json:"branchName" yaml:"branchName"`
}

type EmergencyDetails struct {
	PrimaryContactName       string `json:"primaryContactName" yaml:"primaryContactName" validate:"required"`
	PrimaryContactRelation   string `json:"primaryContactRelation" yaml:"primaryContactRelation" validate:"required"`
	PrimaryContactPhone      string `json:"primaryContactPhone" yaml:"primaryContactPhone" validate:"required,mobile10"`
	SecondaryContactName     string `json:"secondaryContactName" yaml:"secondaryContactName"`
	SecondaryContactRelation string `json:"secondaryContactRelation" yaml:"secondaryContactRelation"`
	SecondaryContactPhone    string `json:"secondaryContactPhone" yaml:"secondaryContactPhone" validate:"omitempty,mobile10"`
	MedicalConditions        string `json:"medicalConditions" yaml:"medicalConditions"`
	BloodGroup               string `json:"bloodGroup" yaml:"bloodGroup" validate:"omitempty,bloodgroup"`
	Allergies                string `json:"allergies" yaml:"allergies"`
}

// DocumentPair 证件正反面的本地文件路径
type DocumentPair struct {
	Front    string `json:"front" yaml:"front" validate:"required"`
	Back     string `json:"back" yaml:"back" validate:"required"`
	Uploaded bool   `json:"uploaded" yaml:"-"`
}

type DocumentsStatus struct {
	Aadhaar        DocumentPair `json:"aadhaar" yaml:"aadhaar"`
	PAN            DocumentPair `json:"pan" yaml:"pan"`
	License        DocumentPair `json:"license" yaml:"license"`
	ProfilePicture string       `json:"profilePicture,omitempty" yaml:"profilePicture"`
}

// Files 按表单字段名返回待上传的文件
func (d DocumentsStatus) Files() map[string]string {
	files := map[string]string{
		"aadhaarFront": d.Aadhaar.Front,
		"aadhaarBack":  d.Aadhaar.Back,
		"panFront":     d.PAN.Front,
		"panBack":      d.PAN.Back,
		"licenseFront": d.License.Front,
		"licenseBack":  d.License.Back,
	}
	if d.ProfilePicture != "" {
		files["profilePicture"] = d.ProfilePicture
	}
	return files
}

func (d *DocumentsStatus) MarkUploaded() {
	d.Aadhaar.Uploaded = true
	d.PAN.Uploaded = true
	d.License.Uploaded = true
}

// SetPath 按重传接口的证件类型（如 aadhaar-front）更新文件路径
func (d *DocumentsStatus) SetPath(docType, path string) bool {
	var pair *DocumentPair
	switch {
	case strings.HasPrefix(docType, "aadhaar-"):
		pair = &d.Aadhaar
	case strings.HasPrefix(docType, "pan-"):
		pair = &d.PAN
	case strings.HasPrefix(docType, "license-"):
		pair = &d.License
	default:
		return false
	}

	switch {
	case strings.HasSuffix(docType, "-front"):
		pair.Front = path
	case strings.HasSuffix(docType, "-back"):
		pair.Back = path
	default:
		return false
	}
	return true
}
