package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

// LabelHandler 订单标签 HTTP 处理器
type LabelHandler struct {
	labelSvc service.LabelService
}

// NewLabelHandler 创建 LabelHandler
func NewLabelHandler(labelSvc service.LabelService) *LabelHandler {
	return &LabelHandler{labelSvc: labelSvc}
}

// Create 新建标签
// POST /api/v1/labels
func (h *LabelHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	label, err := h.labelSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleLabelError(c, err)
		return
	}
	response.Created(c, label)
}

// List 标签列表
// GET /api/v1/labels
func (h *LabelHandler) List(c *gin.Context) {
	labels, err := h.labelSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, labels)
}

// Update 更新标签
// PUT /api/v1/labels/:id
func (h *LabelHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	label, err := h.labelSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleLabelError(c, err)
		return
	}
	response.OK(c, label)
}

// Delete 删除标签
// DELETE /api/v1/labels/:id
func (h *LabelHandler) Delete(c *gin.Context) {
	if err := h.labelSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleLabelError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *LabelHandler) handleLabelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLabelNotFound):
		response.NotFound(c, 18001, "标签不存在")
	case errors.Is(err, service.ErrLabelExists):
		response.Conflict(c, 18002, "标签名称已存在")
	default:
		writeError(c, err)
	}
}
