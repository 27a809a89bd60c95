package dto

import "time"

// ── 认证模块响应 ──

// TokenResponse 登录响应
type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"` // Access Token 有效期（秒）
	Role        string          `json:"role"`
	Account     AccountResponse `json:"account"`
}

// AccountResponse 登录账号信息（脱敏）
type AccountResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	DriverCode string `json:"driver_code,omitempty"`
	Role       string `json:"role"`
}

// ── 账号模块响应 ──

// DriverResponse 司机信息
type DriverResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Mobile        string    `json:"mobile"`
	DriverCode    string    `json:"driver_code"`
	IsActive      bool      `json:"is_active"`
	WalletBalance string    `json:"wallet_balance"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminResponse 后台账号信息
type AdminResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	WalletBalance string   `json:"wallet_balance"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
