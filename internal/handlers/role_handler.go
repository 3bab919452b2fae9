package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/pagination"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreateRoleRequest struct {
	LandlordID  uint   `json:"landlord_id" binding:"required"`
	Code        string `json:"code" binding:"required,min=2,max=50"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required,oneof=active inactive"`
}

type AttachPermissionRequest struct {
	PermissionID  uint  `json:"permission_id" binding:"required"`
	PolicyID      *uint `json:"policy_id"`
	InheritPolicy *bool `json:"inherit_policy"`
}

type UpdateAttachmentRequest struct {
	PolicyID      *uint `json:"policy_id"`
	InheritPolicy *bool `json:"inherit_policy"`
}

// RoleHandler 角色接口
type RoleHandler struct {
	service               *services.RoleService
	rolePermissionService *services.RolePermissionService
}

func NewRoleHandler(service *services.RoleService, rolePermissionService *services.RolePermissionService) *RoleHandler {
	return &RoleHandler{service: service, rolePermissionService: rolePermissionService}
}

// Create 创建角色
func (h *RoleHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Create(c.Request.Context(), req.LandlordID, req.Code, req.Name, req.Description)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", role)
}

// GetByID 获取角色详情
func (h *RoleHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	role, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, role)
}

// GetByLandlord 分页获取角色列表
func (h *RoleHandler) GetByLandlord(c *gin.Context) {
	landlordID, err := strconv.ParseUint(c.Query("landlord_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "landlord_id格式错误")
		return
	}

	params := pagination.ParsePageParams(c)
	status := c.Query("status")

	roles, total, err := h.service.GetByLandlordWithPage(c.Request.Context(), uint(landlordID), status, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, roles, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新角色
func (h *RoleHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	role, err := h.service.Update(c.Request.Context(), uint(id), req.Name, req.Description, req.Status)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, role)
}

// Delete 删除角色
func (h *RoleHandler) Delete(c *gin.Context) {
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

// GetEffectivePermissions 获取角色的有效权限集
func (h *RoleHandler) GetEffectivePermissions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	perms, err := h.rolePermissionService.ResolveEffectivePermissions(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, perms)
}

// AttachPermission 给角色挂接权限
func (h *RoleHandler) AttachPermission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req AttachPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	// 不传 inherit_policy 时默认继承权限的默认策略
	inherit := true
	if req.InheritPolicy != nil {
		inherit = *req.InheritPolicy
	}

	assoc, err := h.rolePermissionService.Attach(c.Request.Context(), uint(id), req.PermissionID, req.PolicyID, inherit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "挂接成功", assoc)
}

// UpdateAttachment 更新角色权限关联的策略配置
func (h *RoleHandler) UpdateAttachment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permissionID, err := strconv.ParseUint(c.Param("permission_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "permission_id格式错误")
		return
	}

	var req UpdateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	inherit := true
	if req.InheritPolicy != nil {
		inherit = *req.InheritPolicy
	}

	assoc, err := h.rolePermissionService.UpdatePolicy(c.Request.Context(), uint(id), uint(permissionID), req.PolicyID, inherit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, assoc)
}

// DetachPermission 摘除角色上的权限（幂等）
func (h *RoleHandler) DetachPermission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	permissionID, err := strconv.ParseUint(c.Param("permission_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "permission_id格式错误")
		return
	}

	detached, err := h.rolePermissionService.Detach(c.Request.Context(), uint(id), uint(permissionID))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"detached": detached})
}
