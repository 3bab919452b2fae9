package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreateInvitationRequest struct {
	TenantID uint   `json:"tenant_id" binding:"required"`
	RoleID   uint   `json:"role_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// InvitationHandler 租户邀请接口
type InvitationHandler struct {
	service *services.InvitationService
}

func NewInvitationHandler(service *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// Create 发起邀请
func (h *InvitationHandler) Create(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	inviterID := c.GetUint("user_id")

	invitation, err := h.service.Create(c.Request.Context(), req.TenantID, inviterID, req.RoleID, req.Email)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请已创建", invitation)
}

// Accept 接受邀请（当前登录用户）
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	userID := c.GetUint("user_id")

	grant, err := h.service.Accept(c.Request.Context(), req.Token, userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "已加入租户", grant)
}

// Cancel 取消邀请
func (h *InvitationHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Cancel(c.Request.Context(), uint(id)); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "邀请已取消", nil)
}

// GetByTenant 获取租户的邀请列表
func (h *InvitationHandler) GetByTenant(c *gin.Context) {
	tenantID, err := strconv.ParseUint(c.Query("tenant_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "tenant_id格式错误")
		return
	}

	invitations, err := h.service.GetByTenant(c.Request.Context(), uint(tenantID))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, invitations)
}
