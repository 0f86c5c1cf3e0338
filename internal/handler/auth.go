package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"DriverOnboard/config"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/logger"
	"DriverOnboard/pkg/response"
)

// SendOTP 发送验证码，开发后端只打印到日志
// POST /api/auth/send-otp
func SendOTP(ctx context.Context, c *app.RequestContext) {
	var req dto.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	code, err := svc.SendOTP(ctx, req.PhoneNumber)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if !config.Cfg.IsProduction() {
		logger.Logger.Info("OTP generated",
			zap.String("phone", req.PhoneNumber),
			zap.String("code", code),
		)
	}

	response.Success(ctx, c, "OTP sent successfully", nil)
}

// VerifyOTP 校验验证码并签发 access token
// POST /api/auth/verify-otp
func VerifyOTP(ctx context.Context, c *app.RequestContext) {
	var req dto.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := svc.VerifyOTP(ctx, req.PhoneNumber, req.Code)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, "OTP verified successfully", data)
}
