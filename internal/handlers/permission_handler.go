package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/pagination"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreatePermissionRequest struct {
	LandlordID      uint   `json:"landlord_id" binding:"required"`
	Action          string `json:"action" binding:"required"`
	Resource        string `json:"resource" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	DefaultPolicyID *uint  `json:"default_policy_id"`
}

type UpdatePermissionRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	DefaultPolicyID *uint  `json:"default_policy_id"`
}

// PermissionHandler 权限接口
type PermissionHandler struct {
	service *services.PermissionService
}

func NewPermissionHandler(service *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// Create 创建权限
func (h *PermissionHandler) Create(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	perm, err := h.service.Create(c.Request.Context(), req.LandlordID, req.Action, req.Resource, req.Name, req.Description, req.DefaultPolicyID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", perm)
}

// GetByID 获取权限详情
func (h *PermissionHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	perm, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, perm)
}

// GetByLandlord 分页获取权限列表
func (h *PermissionHandler) GetByLandlord(c *gin.Context) {
	landlordID, err := strconv.ParseUint(c.Query("landlord_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "landlord_id格式错误")
		return
	}

	params := pagination.ParsePageParams(c)
	resource := c.Query("resource")

	perms, total, err := h.service.GetByLandlordWithPage(c.Request.Context(), uint(landlordID), resource, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, perms, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新权限
func (h *PermissionHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	perm, err := h.service.Update(c.Request.Context(), uint(id), req.Name, req.Description, req.DefaultPolicyID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, perm)
}

// Delete 删除权限
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	if err := h.service.Delete(c.Request.Context(), uint(id)); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
