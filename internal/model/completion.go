package model

// CompletionRecord 五个分区的完成标记
type CompletionRecord struct {
	PersonalInformation bool `json:"personalInformation"`
	PersonalDocuments   bool `json:"personalDocuments"`
	VehicleDetails      bool `json:"vehicleDetails"`
	BankDetails         bool `json:"bankDetails"`
	EmergencyDetails    bool `json:"emergencyDetails"`
}

// DefaultCompletionRecord 新会话的初始记录
func DefaultCompletionRecord(assumePersonalInfo bool) CompletionRecord {
	return CompletionRecord{PersonalInformation: assumePersonalInfo}
}

func (r CompletionRecord) Get(s Section) bool {
	switch s {
	case SectionPersonalInformation:
		return r.PersonalInformation
	case SectionPersonalDocuments:
		return r.PersonalDocuments
	case SectionVehicleDetails:
		return r.VehicleDetails
	case SectionBankDetails:
		return r.BankDetails
	case SectionEmergencyDetails:
		return r.EmergencyDetails
	}
	return false
}

func (r *CompletionRecord) Set(s Section, done bool) {
	switch s {
	case SectionPersonalInformation:
		r.PersonalInformation = done
	case SectionPersonalDocuments:
		r.PersonalDocuments = done
	case SectionVehicleDetails:
		r.VehicleDetails = done
	case SectionBankDetails:
		r.BankDetails = done
	case SectionEmergencyDetails:
		r.EmergencyDetails = done
	}
}

func (r CompletionRecord) IsFullyComplete() bool {
	return len(r.Pending()) == 0
}

// Pending 未完成的分区，按规范顺序
func (r CompletionRecord) Pending() []Section {
	var out []Section
	for _, s := range Sections() {
		if !r.Get(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r CompletionRecord) CompletedCount() int {
	return len(Sections()) - len(r.Pending())
}
