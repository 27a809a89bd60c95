package dto

// ── 账号模块 DTO ──

// CreateDriverRequest 新建司机请求
type CreateDriverRequest struct {
	Name       string `json:"name"        binding:"required,min=2,max=100"`
	Email      string `json:"email"       binding:"omitempty,email"`
	Mobile     string `json:"mobile"      binding:"omitempty,max=20"`
	DriverCode string `json:"driver_code" binding:"required,max=50"`
	Password   string `json:"password"    binding:"required,min=6,max=64"`
}

// DriverListRequest 司机列表查询参数
type DriverListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// SetDriverActiveRequest 启用/停用司机
type SetDriverActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateAdminRequest 新建后台账号请求
type CreateAdminRequest struct {
	Name        string   `json:"name"        binding:"required,min=2,max=100"`
	Email       string   `json:"email"       binding:"required,email"`
	Password    string   `json:"password"    binding:"required,min=8,max=64"`
	Role        string   `json:"role"        binding:"required,oneof=admin subadmin"`
	Permissions []string `json:"permissions"`
}
