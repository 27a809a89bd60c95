package dto

// ── 认证模块 DTO ──

// AdminLoginRequest 后台登录请求
type AdminLoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// DriverLoginRequest 司机登录请求
type DriverLoginRequest struct {
	DriverCode string `json:"driver_code" binding:"required"`
	Password   string `json:"password"    binding:"required"`
}
