package model

// Route 启动或提交后应进入的页面
type Route string

const (
	RoutePhoneEntry          Route = "phone_entry"
	RouteMain                Route = "main"
	RoutePendingVerification Route = "pending_verification"
	RouteRegistration        Route = "registration"
	RouteReview              Route = "review"
)

// LaunchDecision 启动路由结果，Section 只在 RouteRegistration 时有值
type LaunchDecision struct {
	Route   Route   `json:"route"`
	Section Section `json:"section,omitempty"`
}

// TerminalState 提交成功后的终态
type TerminalState struct {
	Submitted bool   `json:"submitted"`
	Next      Route  `json:"next"`
	Message   string `json:"message,omitempty"`
}
