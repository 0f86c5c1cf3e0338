package handler

import (
	"DriverOnboard/internal/backend"
)

var svc *backend.Service

// Init 注入开发后端服务，router 注册前调用
func Init(s *backend.Service) {
	svc = s
}
