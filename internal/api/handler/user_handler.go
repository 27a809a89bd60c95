package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

// UserHandler 司机与后台账号 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ── 司机 ──

// CreateDriver 新建司机
// POST /api/v1/drivers
func (h *UserHandler) CreateDriver(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	driver, err := h.userSvc.CreateDriver(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.Created(c, driver)
}

// ListDrivers 司机列表
// GET /api/v1/drivers
func (h *UserHandler) ListDrivers(c *gin.Context) {
	var req dto.DriverListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	drivers, total, err := h.userSvc.ListDrivers(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, drivers, total, req.GetPage(), req.GetPageSize())
}

// GetDriver 司机详情
// GET /api/v1/drivers/:id
func (h *UserHandler) GetDriver(c *gin.Context) {
	driver, err := h.userSvc.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, driver)
}

// SetDriverActive 启用/停用司机
// PUT /api/v1/drivers/:id/active
func (h *UserHandler) SetDriverActive(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SetDriverActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	driver, err := h.userSvc.SetDriverActive(c.Request.Context(), actor, c.Param("id"), *req.IsActive)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, driver)
}

// ── 后台账号 ──

// CreateAdmin 新建后台账号（仅 admin）
// POST /api/v1/admins
func (h *UserHandler) CreateAdmin(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	admin, err := h.userSvc.CreateAdmin(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.Created(c, admin)
}

// ListAdmins 后台账号列表
// GET /api/v1/admins
func (h *UserHandler) ListAdmins(c *gin.Context) {
	admins, err := h.userSvc.ListAdmins(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, admins)
}

// GetCurrentAdmin 当前后台账号
// GET /api/v1/admins/me
func (h *UserHandler) GetCurrentAdmin(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	admin, err := h.userSvc.GetAdmin(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, admin)
}

// GetCurrentDriver 当前司机
// GET /api/v1/me
func (h *UserHandler) GetCurrentDriver(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	driver, err := h.userSvc.GetDriver(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	response.OK(c, driver)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDriverCodeExists):
		response.Conflict(c, 12003, "司机编号已存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12004, "邮箱已被使用")
	default:
		writeError(c, err)
	}
}
