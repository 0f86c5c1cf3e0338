package validate

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"DriverOnboard/internal/model"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/phone"
)

// DateLayout 出生日期格式 DD - MM - YYYY
const DateLayout = "02 - 01 - 2006"

const minDriverAge = 21

var (
	ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	otpPattern  = regexp.MustCompile(`^\d{6}$`)

	bloodGroups = map[string]struct{}{
		"A+": {}, "A-": {}, "B+": {}, "B-": {},
		"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
	}

	// 测试里替换
	now = time.Now

	v    *validator.Validate
	once sync.Once
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		// 错误里使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("mobile10", func(fl validator.FieldLevel) bool {
			return phone.IsMobile10(fl.Field().String())
		})
		_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
			return ifscPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
			_, ok := bloodGroups[fl.Field().String()]
			return ok
		})
		_ = v.RegisterValidation("dob21", func(fl validator.FieldLevel) bool {
			return IsAdult(fl.Field().String())
		})
	})
	return v
}

// Struct 校验草稿，失败时返回 *errors.FieldError，字段名为 json 名
func Struct(draft interface{}) error {
	err := instance().Struct(draft)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewFieldError(errors.ValidationFailed, err.Error())
	}

	fields := make([]string, 0, len(verrs))
	missing := false
	msg := ""
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe))
		if fe.Tag() == "required" || fe.Tag() == "min" {
			missing = true
			continue
		}
		if msg == "" {
			msg = tagMessage(fe.Tag())
		}
	}
	if missing || msg == "" {
		msg = errors.ValidationFailed.Message
	}

	return errors.NewFieldError(errors.ValidationFailed, msg, fields...)
}

// Section 按分区规整并校验草稿，draft 必须是对应分区的指针类型
func Section(section model.Section, draft interface{}) error {
	switch d := draft.(type) {
	case *model.PersonalInfo:
		d.FirstName = strings.TrimSpace(d.FirstName)
		d.LastName = strings.TrimSpace(d.LastName)
		d.FatherName = strings.TrimSpace(d.FatherName)
		d.Address = strings.TrimSpace(d.Address)
	case *model.BankDetails:
		d.AccountHolderName = strings.TrimSpace(d.AccountHolderName)
		d.AccountNumber = strings.TrimSpace(d.AccountNumber)
		d.ConfirmAccountNumber = strings.TrimSpace(d.ConfirmAccountNumber)
		d.IFSCCode = strings.ToUpper(strings.TrimSpace(d.IFSCCode))
	case *model.VehicleDetails:
		d.PlateNumber = strings.ToUpper(strings.TrimSpace(d.PlateNumber))
	case *model.EmergencyDetails, *model.DocumentsStatus:
	default:
		return errors.NewFieldError(errors.UnknownSection, "", string(section))
	}

	return Struct(draft)
}

// IsAdult 解析 DD - MM - YYYY 并判断是否年满 21 岁
func IsAdult(dob string) bool {
	born, err := time.Parse(DateLayout, dob)
	if err != nil {
		return false
	}
	return age(born, now()) >= minDriverAge
}

func age(born, at time.Time) int {
	years := at.Year() - born.Year()
	if at.Month() < born.Month() || (at.Month() == born.Month() && at.Day() < born.Day()) {
		years--
	}
	return years
}

func IsOTP(code string) bool {
	return otpPattern.MatchString(code)
}

func fieldPath(fe validator.FieldError) string {
	// Namespace 形如 DocumentsStatus.aadhaar.front，去掉顶层类型名
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(tag string) string {
	switch tag {
	case "mobile10":
		return "Please enter a valid 10-digit mobile number"
	case "eqfield":
		return "Account numbers do not match"
	case "ifsc":
		return "Please enter a valid IFSC code"
	case "dob21":
		return "Driver must be at least 21 years old"
	case "bloodgroup":
		return "Please select a valid blood group"
	case "numeric", "len":
		return "Please enter a valid number"
	}
	return "Invalid value"
}
