package handlers

import (
	"authhub/internal/services"
	"authhub/pkg/jwt"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TenantID uint   `json:"tenant_id"` // 登录后操作的租户，可选
}

type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

type SwitchTenantRequest struct {
	TenantID uint `json:"tenant_id" binding:"required"`
}

// AuthHandler 认证相关接口
type AuthHandler struct {
	userService   *services.UserService
	tenantService *services.TenantService
	jwtManager    *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, tenantService *services.TenantService, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		tenantService: tenantService,
		jwtManager:    jwtManager,
	}
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	isPlatformAdmin, err := h.userService.IsPlatformAdmin(c.Request.Context(), user.ID)
	if err != nil {
		response.ServerError(c, "登录失败")
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, req.TenantID, user.Username, isPlatformAdmin)
	if err != nil {
		response.ServerError(c, "生成令牌失败")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(h.jwtManager.GetTokenDuration().Seconds()),
		"user":       user,
	})
}

// RefreshToken 刷新令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	token, err := h.jwtManager.RefreshToken(req.Token)
	if err != nil {
		response.Unauthorized(c, "Token无效或已过期")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(h.jwtManager.GetTokenDuration().Seconds()),
	})
}

// Me 当前用户信息和全部租户授权
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint("user_id")

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	grants, err := h.userService.GetUserGrants(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, gin.H{
		"user":              user,
		"grants":            grants,
		"current_tenant_id": c.GetUint("current_tenant_id"),
	})
}

// SwitchTenant 切换当前操作租户，签发新令牌
func (h *AuthHandler) SwitchTenant(c *gin.Context) {
	var req SwitchTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	userID := c.GetUint("user_id")
	username := c.GetString("username")
	isPlatformAdmin := c.GetBool("is_platform_admin")

	if _, err := h.tenantService.GetByID(c.Request.Context(), req.TenantID); err != nil {
		response.HandleError(c, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(userID, req.TenantID, username, isPlatformAdmin)
	if err != nil {
		response.ServerError(c, "生成令牌失败")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(h.jwtManager.GetTokenDuration().Seconds()),
	})
}
