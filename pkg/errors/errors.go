package errors

import (
	stderrors "errors"
	"strings"
)

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 本地存储错误。
var (
	StorageReadFailed  = Definition{Code: "STORAGE_READ_FAILED", Message: "Failed to read local storage"}
	StorageWriteFailed = Definition{Code: "STORAGE_WRITE_FAILED", Message: "Failed to write local storage"}
	DraftNotFound      = Definition{Code: "DRAFT_NOT_FOUND", Message: "Draft not found"}
)

// 网络及服务端错误。
var (
	NetworkUnavailable = Definition{Code: "NETWORK_UNAVAILABLE", Message: "Network unavailable"}
	ServerRejected     = Definition{Code: "SERVER_REJECTED", Message: "Server rejected the request"}
	CircuitOpen        = Definition{Code: "CIRCUIT_OPEN", Message: "Remote service temporarily unavailable"}
)

// 配置前置条件错误，需要开发者介入，以阻塞式提示展示。
var (
	BackendURLMissing  = Definition{Code: "BACKEND_URL_MISSING", Message: "Backend URL not configured"}
	PhoneNumberMissing = Definition{Code: "PHONE_NUMBER_MISSING", Message: "Phone number not found"}
)

// 校验及流程错误。
var (
	ValidationFailed   = Definition{Code: "VALIDATION_FAILED", Message: "Please fill all required fields"}
	SectionIncomplete  = Definition{Code: "SECTION_INCOMPLETE", Message: "Registration section incomplete"}
	SubmissionInFlight = Definition{Code: "SUBMISSION_IN_FLIGHT", Message: "Submission already in progress"}
	UnknownSection     = Definition{Code: "UNKNOWN_SECTION", Message: "Unknown registration section"}
	OTPInvalid         = Definition{Code: "OTP_INVALID", Message: "Invalid OTP"}
	PhoneInvalid       = Definition{Code: "PHONE_INVALID", Message: "Please enter a valid 10-digit mobile number"}
	TermsNotAccepted   = Definition{Code: "TERMS_NOT_ACCEPTED", Message: "Please agree to the Terms of Use and Privacy Policy"}
	DriverNotFound     = Definition{Code: "DRIVER_NOT_FOUND", Message: "Driver not found"}
	OTPRateLimited     = Definition{Code: "OTP_RATE_LIMITED", Message: "Too many OTP requests"}
	Unauthorized       = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	StorageReadFailed.Code:  StorageReadFailed,
	StorageWriteFailed.Code: StorageWriteFailed,
	DraftNotFound.Code:      DraftNotFound,
	NetworkUnavailable.Code: NetworkUnavailable,
	ServerRejected.Code:     ServerRejected,
	CircuitOpen.Code:        CircuitOpen,
	BackendURLMissing.Code:  BackendURLMissing,
	PhoneNumberMissing.Code: PhoneNumberMissing,
	ValidationFailed.Code:   ValidationFailed,
	SectionIncomplete.Code:  SectionIncomplete,
	SubmissionInFlight.Code: SubmissionInFlight,
	UnknownSection.Code:     UnknownSection,
	OTPInvalid.Code:         OTPInvalid,
	PhoneInvalid.Code:       PhoneInvalid,
	TermsNotAccepted.Code:   TermsNotAccepted,
	DriverNotFound.Code:     DriverNotFound,
	OTPRateLimited.Code:     OTPRateLimited,
	Unauthorized.Code:       Unauthorized,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// FieldError 校验失败时携带出错字段，errors.Is 可匹配到其 Definition。
type FieldError struct {
	Def     Definition
	Fields  []string
	Message string
}

func NewFieldError(def Definition, message string, fields ...string) *FieldError {
	return &FieldError{Def: def, Fields: fields, Message: message}
}

func (e *FieldError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Def.Message
	}
	if len(e.Fields) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(e.Fields, ", ")
}

func (e *FieldError) Unwrap() error {
	return e.Def
}

// Code 提取错误链上的业务错误码，没有则返回空串
func Code(err error) string {
	var def Definition
	if stderrors.As(err, &def) {
		return def.Code
	}
	return ""
}

// IsConfigError 判断是否为需要阻塞提示的配置类错误
func IsConfigError(err error) bool {
	return stderrors.Is(err, BackendURLMissing) || stderrors.Is(err, PhoneNumberMissing)
}
