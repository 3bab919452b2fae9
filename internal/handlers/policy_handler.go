package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/pagination"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CreatePolicyRequest struct {
	LandlordID  uint                   `json:"landlord_id" binding:"required"`
	TenantID    *uint                  `json:"tenant_id"`
	Code        string                 `json:"code" binding:"required,min=2,max=50"`
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Effect      string                 `json:"effect" binding:"required,effect"`
	Actions     []string               `json:"actions" binding:"required,min=1"`
	Resources   []string               `json:"resources" binding:"required,min=1"`
	Conditions  map[string]interface{} `json:"conditions"`
}

type UpdatePolicyRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Description string                 `json:"description"`
	Effect      string                 `json:"effect" binding:"required,effect"`
	Actions     []string               `json:"actions" binding:"required,min=1"`
	Resources   []string               `json:"resources" binding:"required,min=1"`
	Conditions  map[string]interface{} `json:"conditions"`
}

// PolicyHandler 策略接口
type PolicyHandler struct {
	service *services.PolicyService
}

func NewPolicyHandler(service *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{service: service}
}

// Create 创建策略
func (h *PolicyHandler) Create(c *gin.Context) {
	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	policy, err := h.service.Create(c.Request.Context(), req.LandlordID, req.TenantID, req.Code, req.Name, req.Description, req.Effect, req.Actions, req.Resources, req.Conditions)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "创建成功", policy)
}

// GetByID 获取策略详情
func (h *PolicyHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	policy, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, policy)
}

// GetByLandlord 分页获取策略列表
func (h *PolicyHandler) GetByLandlord(c *gin.Context) {
	landlordID, err := strconv.ParseUint(c.Query("landlord_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "landlord_id格式错误")
		return
	}

	params := pagination.ParsePageParams(c)
	effect := c.Query("effect")

	policies, total, err := h.service.GetByLandlordWithPage(c.Request.Context(), uint(landlordID), effect, params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, policies, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新策略（同步失效引用该策略的角色缓存）
func (h *PolicyHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	policy, err := h.service.Update(c.Request.Context(), uint(id), req.Name, req.Description, req.Effect, req.Actions, req.Resources, req.Conditions)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, policy)
}

// Delete 删除策略
func (h *PolicyHandler) Delete(c *gin.Context) {
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
