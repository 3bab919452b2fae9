package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/pagination"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CreateTenantRequest struct {
	LandlordID uint           `json:"landlord_id" binding:"required"`
	Name       string         `json:"name" binding:"required"`
	Code       string         `json:"code" binding:"required"`
	Config     datatypes.JSON `json:"config"`
}

type UpdateTenantRequest struct {
	Name   string         `json:"name" binding:"required"`
	Config datatypes.JSON `json:"config"`
}

type SetTenantStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

type GrantRoleRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	RoleID uint `json:"role_id" binding:"required"`
}

type RevokeRoleRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	RoleID uint `json:"role_id" binding:"required"`
}

// TenantHandler 租户接口
type TenantHandler struct {
	service      *services.TenantService
	grantService *services.GrantService
}

func NewTenantHandler(service *services.TenantService, grantService *services.GrantService) *TenantHandler {
	return &TenantHandler{service: service, grantService: grantService}
}

// Create 创建租户
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), req.LandlordID, req.Name, req.Code, req.Config)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", tenant)
}

// GetByID 获取租户详情
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	tenant, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, tenant)
}

// GetByLandlord 分页获取租户列表
func (h *TenantHandler) GetByLandlord(c *gin.Context) {
	landlordID, err := strconv.ParseUint(c.Query("landlord_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "landlord_id格式错误")
		return
	}

	params := pagination.ParsePageParams(c)
	status := c.Query("status")

	tenants, total, err := h.service.GetByLandlordWithPage(c.Request.Context(), uint(landlordID), status, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, tenants, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新租户
func (h *TenantHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.Update(c.Request.Context(), uint(id), req.Name, req.Config)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, tenant)
}

// SetStatus 启用/停用租户
func (h *TenantHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req SetTenantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	tenant, err := h.service.SetStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, tenant)
}

// Delete 删除租户
func (h *TenantHandler) Delete(c *gin.Context) {
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

// GetMembers 分页获取租户成员
func (h *TenantHandler) GetMembers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	params := pagination.ParsePageParams(c)

	members, total, err := h.service.GetMembers(c.Request.Context(), uint(id), params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, members, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// GrantRole 在租户内给用户授予角色
func (h *TenantHandler) GrantRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	var grantedBy *uint
	if operatorID := c.GetUint("user_id"); operatorID > 0 {
		grantedBy = &operatorID
	}

	grant, err := h.grantService.Grant(c.Request.Context(), req.UserID, uint(id), req.RoleID, grantedBy)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "授权成功", grant)
}

// RevokeRole 撤销租户内的角色授权
func (h *TenantHandler) RevokeRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req RevokeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	revoked, err := h.grantService.Revoke(c.Request.Context(), req.UserID, uint(id), req.RoleID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"revoked": revoked})
}

// GetGrants 获取租户内全部授权记录
func (h *TenantHandler) GetGrants(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	grants, err := h.grantService.GetByTenant(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, grants)
}
