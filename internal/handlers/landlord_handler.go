package handlers

import (
	"strconv"

	"authhub/internal/services"
	"authhub/pkg/pagination"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type SetupLandlordRequest struct {
	Name   string         `json:"name" binding:"required"`
	Config datatypes.JSON `json:"config"`
}

type UpdateLandlordRequest struct {
	Name   string         `json:"name" binding:"required"`
	Config datatypes.JSON `json:"config"`
	Status string         `json:"status" binding:"required"`
}

// LandlordHandler 网络主体接口
type LandlordHandler struct {
	service *services.LandlordService
}

func NewLandlordHandler(service *services.LandlordService) *LandlordHandler {
	return &LandlordHandler{service: service}
}

// Setup 网络主体初始化
func (h *LandlordHandler) Setup(c *gin.Context) {
	var req SetupLandlordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.service.Setup(c.Request.Context(), req.Name, req.Config)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessWithMessage(c, "初始化成功", result)
}

// GetByID 获取网络主体
func (h *LandlordHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	landlord, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, landlord)
}

// GetAll 分页获取网络主体列表
func (h *LandlordHandler) GetAll(c *gin.Context) {
	params := pagination.ParsePageParams(c)

	landlords, total, err := h.service.GetAllWithPage(c.Request.Context(), params.Page, params.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.SuccessWithPage(c, landlords, pagination.NewPageInfo(params.Page, params.PageSize, total))
}

// Update 更新网络主体
func (h *LandlordHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req UpdateLandlordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	landlord, err := h.service.Update(c.Request.Context(), uint(id), req.Name, req.Config, req.Status)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, landlord)
}

// Delete 删除网络主体
func (h *LandlordHandler) Delete(c *gin.Context) {
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
