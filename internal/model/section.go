package model

// Section 注册流程的五个分区，顺序即界面上的展示顺序
type Section string

const (
	SectionPersonalInformation Section = "personalInformation"
	SectionPersonalDocuments   Section = "personalDocuments"
	SectionVehicleDetails      Section = "vehicleDetails"
	SectionBankDetails         Section = "bankDetails"
	SectionEmergencyDetails    Section = "emergencyDetails"
)

// Sections 按规范顺序返回全部分区
func Sections() []Section {
	return []Section{
		SectionPersonalInformation,
		SectionPersonalDocuments,
		SectionVehicleDetails,
		SectionBankDetails,
		SectionEmergencyDetails,
	}
}

func (s Section) Valid() bool {
	switch s {
	case SectionPersonalInformation, SectionPersonalDocuments, SectionVehicleDetails,
		SectionBankDetails, SectionEmergencyDetails:
		return true
	}
	return false
}

// DraftKey 返回该分区草稿在本地存储中的 key
func (s Section) DraftKey() string {
	switch s {
	case SectionPersonalInformation:
		return KeyPersonalInformation
	case SectionPersonalDocuments:
		return KeyDocumentsStatus
	case SectionVehicleDetails:
		return KeyVehicleDetails
	case SectionBankDetails:
		return KeyBankDetails
	case SectionEmergencyDetails:
		return KeyEmergencyDetails
	}
	return ""
}

func (s Section) Title() string {
	switch s {
	case SectionPersonalInformation:
		return "Personal Information"
	case SectionPersonalDocuments:
		return "Personal Documents"
	case SectionVehicleDetails:
		return "Vehicle Details"
	case SectionBankDetails:
		return "Bank Account Details"
	case SectionEmergencyDetails:
		return "Emergency Details"
	}
	return string(s)
}

// ParseSection 同时接受 camelCase 标识和 CLI 里常用的短名
func ParseSection(name string) (Section, bool) {
	switch name {
	case "personal", "personal-info", "personal_information":
		return SectionPersonalInformation, true
	case "documents", "personal-documents", "documents_status":
		return SectionPersonalDocuments, true
	case "vehicle", "vehicle-details", "vehicle_details":
		return SectionVehicleDetails, true
	case "bank", "bank-details", "bank_details":
		return SectionBankDetails, true
	case "emergency", "emergency-details", "emergency_details":
		return SectionEmergencyDetails, true
	}

	s := Section(name)
	return s, s.Valid()
}
