package handlers

import (
	"authhub/internal/services"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckAccessRequest struct {
	UserID   uint                   `json:"user_id" binding:"required"`
	TenantID uint                   `json:"tenant_id" binding:"required"`
	Action   string                 `json:"action" binding:"required"`
	Resource string                 `json:"resource" binding:"required"`
	Context  map[string]interface{} `json:"context"`
}

// AccessHandler 访问决策接口
type AccessHandler struct {
	service *services.AccessService
}

func NewAccessHandler(service *services.AccessService) *AccessHandler {
	return &AccessHandler{service: service}
}

// Check 执行一次访问决策
// DENY 不是错误：正常返回 allowed=false 及原因，仅存储/校验故障走错误分支
func (h *AccessHandler) Check(c *gin.Context) {
	var req CheckAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	decision, err := h.service.Decide(c.Request.Context(), req.UserID, req.TenantID, req.Action, req.Resource, req.Context)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, decision)
}
