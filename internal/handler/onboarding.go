package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/apiclient"
	"DriverOnboard/pkg/response"
)

// SubmitDocuments multipart 上传证件照片，只记录文件名和大小
// POST /api/auth/personal-documents
func SubmitDocuments(ctx context.Context, c *app.RequestContext) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	phone := ""
	if v := form.Value["phoneNumber"]; len(v) > 0 {
		phone = v[0]
	}

	files := make(map[string]string, len(form.File))
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		files[field] = describeFile(headers[0])
	}

	if err := svc.SaveDocuments(ctx, phone, files); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Documents uploaded successfully", nil)
}

// POST /api/auth/vehicle-details
func SubmitVehicleDetails(ctx context.Context, c *app.RequestContext) {
	var req dto.VehicleDetailsRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := svc.SaveVehicle(ctx, req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Vehicle details saved successfully", nil)
}

// POST /api/auth/bank-details
func SubmitBankDetails(ctx context.Context, c *app.RequestContext) {
	var req dto.BankDetailsRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := svc.SaveBank(ctx, req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Bank details saved successfully", nil)
}

// POST /api/auth/emergency-details
func SubmitEmergencyDetails(ctx context.Context, c *app.RequestContext) {
	var req dto.EmergencyDetailsRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := svc.SaveEmergency(ctx, req); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Emergency details saved successfully", nil)
}

// CompleteVerification 查询完成状态；submit=true 时提交注册，按 Idempotency-Key 去重
// POST /api/auth/complete-verification
func CompleteVerification(ctx context.Context, c *app.RequestContext) {
	var req dto.CompleteVerificationRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	key := string(c.GetHeader(apiclient.HeaderIdempotencyKey))
	res, err := svc.CompleteVerification(ctx, req.PhoneNumber, req.Submit, key)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithProfile(ctx, c, res.Message, dto.CompleteVerificationData{Submitted: res.Submitted}, res.Profile)
}
