package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"DriverOnboard/internal/middleware"
	"DriverOnboard/internal/model/dto"
	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/response"
)

// Health GET /health
func Health(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, "", dto.HealthData{Status: "ok"})
}

// ownDriver 路径里的 :id 必须是 token 对应的司机
func ownDriver(ctx context.Context, c *app.RequestContext) (string, bool) {
	id := c.Param("id")
	if current, ok := middleware.GetDriverID(ctx, c); !ok || current != id {
		response.Error(ctx, c, errors.Unauthorized)
		return "", false
	}
	return id, true
}

// reply 查询类接口的统一返回
func reply(ctx context.Context, c *app.RequestContext, data interface{}, err error) {
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "", data)
}

// GetVerificationStatus 只能查询 token 对应的司机
// GET /api/drivers/:id/verification-status
func GetVerificationStatus(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	st, err := svc.VerificationStatus(ctx, id)
	reply(ctx, c, st, err)
}

// GET /api/drivers/:id
func GetDriver(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	d, err := svc.Driver(ctx, id)
	reply(ctx, c, d, err)
}

// GET /api/drivers/:id/vehicle
func GetVehicleDetails(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	v, err := svc.Vehicle(ctx, id)
	reply(ctx, c, v, err)
}

// GET /api/drivers/:id/bank
func GetBankDetails(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	b, err := svc.Bank(ctx, id)
	reply(ctx, c, b, err)
}

// GET /api/drivers/:id/emergency
func GetEmergencyDetails(ctx context.Context, c *app.RequestContext) {
	id, ok := ownDriver(ctx, c)
	if !ok {
		return
	}
	e, err := svc.Emergency(ctx, id)
	reply(ctx, c, e, err)
}

// ApproveDriver 模拟后台审核通过
// POST /dev/drivers/:id/approve
func ApproveDriver(ctx context.Context, c *app.RequestContext) {
	if err := svc.Approve(ctx, c.Param("id")); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, "Driver approved", nil)
}
