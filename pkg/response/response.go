package response

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/logger"
)

func errorToHTTPStatus(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	// 根据错误码映射 HTTP 状态码
	switch def.Code {
	case errors.OTPRateLimited.Code:
		return http.StatusTooManyRequests // 429
	case errors.ValidationFailed.Code, errors.PhoneInvalid.Code,
		errors.OTPInvalid.Code, errors.SectionIncomplete.Code,
		errors.UnknownSection.Code, errors.TermsNotAccepted.Code:
		return http.StatusBadRequest // 400
	case errors.Unauthorized.Code:
		return http.StatusUnauthorized // 401
	case errors.DriverNotFound.Code, errors.DraftNotFound.Code:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}

// Message 错误的用户提示，FieldError 带上字段名
func Message(err error) string {
	var fe *errors.FieldError
	if stderrors.As(err, &fe) {
		return fe.Error()
	}
	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Message
	}
	return "Internal server error"
}

// Error 返回 {success:false, message, error}
func Error(ctx context.Context, c *app.RequestContext, err error) {
	status := errorToHTTPStatus(err)
	code := errors.Code(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}

	if status >= http.StatusInternalServerError {
		logger.Logger.Error("Request failed",
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
	}

	c.JSON(status, dto.APIResponse{
		Success: false,
		Message: Message(err),
		Error:   code,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, dto.APIResponse{
		Success: false,
		Message: "Invalid request body",
		Error:   "INVALID_REQUEST",
	})
}

func Success(ctx context.Context, c *app.RequestContext, message string, data interface{}) {
	c.JSON(http.StatusOK, envelope(message, data, nil))
}

// SuccessWithProfile complete-verification 额外返回 profileStatus
func SuccessWithProfile(ctx context.Context, c *app.RequestContext, message string, data interface{}, profile *dto.ProfileStatus) {
	c.JSON(http.StatusOK, envelope(message, data, profile))
}

func envelope(message string, data interface{}, profile *dto.ProfileStatus) dto.APIResponse {
	out := dto.APIResponse{Success: true, Message: message, ProfileStatus: profile}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Logger.Error("Failed to encode response data", zap.Error(err))
		} else {
			out.Data = raw
		}
	}
	return out
}
