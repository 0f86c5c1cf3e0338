package router

import (
	"net/http"

	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/route"

	"DriverOnboard/config"
	"DriverOnboard/internal/handler"
	"DriverOnboard/internal/middleware"
)

// Register metricsHandler 为 nil 时不暴露 /metrics
func Register(h *route.Engine, metricsHandler http.Handler) {
	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.MetricsMiddleware())
	h.Use(middleware.CORSMiddleware(config.Cfg.DevServerAllowedOrigins))

	h.GET("/health", handler.Health)
	if metricsHandler != nil {
		h.GET("/metrics", adaptor.HertzHandler(metricsHandler))
	}

	api := h.Group("/api")

	// 注册流程，以手机号作为身份
	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", handler.SendOTP)
		auth.POST("/verify-otp", handler.VerifyOTP)
		auth.POST("/personal-documents", handler.SubmitDocuments)
		auth.POST("/vehicle-details", handler.SubmitVehicleDetails)
		auth.POST("/bank-details", handler.SubmitBankDetails)
		auth.POST("/emergency-details", handler.SubmitEmergencyDetails)
		auth.POST("/complete-verification", handler.CompleteVerification)
	}

	drivers := api.Group("/drivers")
	drivers.Use(middleware.AuthMiddleware())
	{
		drivers.GET("/:id", handler.GetDriver)
		drivers.GET("/:id/vehicle", handler.GetVehicleDetails)
		drivers.GET("/:id/bank", handler.GetBankDetails)
		drivers.GET("/:id/emergency", handler.GetEmergencyDetails)
		drivers.GET("/:id/verification-status", handler.GetVerificationStatus)
	}

	documents := api.Group("/documents")
	documents.Use(middleware.AuthMiddleware())
	{
		documents.GET("/:id/document-status", handler.GetDocumentStatus)
		documents.POST("/:id/reupload/:type", handler.ReuploadDocument)
		documents.POST("/:id/reupload-pair/:pair", handler.ReuploadPair)
	}

	// 开发用：模拟后台审核
	dev := h.Group("/dev")
	{
		dev.POST("/drivers/:id/approve", handler.ApproveDriver)
	}
}
