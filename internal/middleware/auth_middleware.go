package middleware

import (
	"context"
	"strconv"
	"strings"

	"authhub/internal/authz"
	"authhub/internal/services"
	"authhub/pkg/jwt"
	"authhub/pkg/logger"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccessChecker 授权门卫依赖的检查能力
type AccessChecker interface {
	Decide(ctx context.Context, userID, tenantID uint, action, resource string, attrs map[string]interface{}) (authz.Decision, error)
	HasAnyRole(ctx context.Context, userID uint, codes []string) (bool, error)
	HasAllRoles(ctx context.Context, userID uint, codes []string) (bool, error)
	HasTenantAccess(ctx context.Context, userID, tenantID uint) (bool, error)
}

// AuthMiddleware 授权门卫
//
// 在受保护操作执行前拦截请求：从安全上下文取出主体，按路由注册处
// 声明的要求调用访问解析器或简单角色/所有权检查。门卫本身不含业务
// 逻辑，检查失败返回403和可读原因，成功则原样放行。
type AuthMiddleware struct {
	userService *services.UserService
	checker     AccessChecker
	jwtManager  *jwt.JWTManager
}

func NewAuthMiddleware(userService *services.UserService, checker AccessChecker, jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		checker:     checker,
		jwtManager:  jwtManager,
	}
}

// RequireLogin 登录检查：验证Bearer令牌并把主体信息放入请求上下文
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		tokenString := authHeader[7:]
		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Token无效或已过期")
			c.Abort()
			return
		}

		user, err := m.userService.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}

		if !user.IsActive() {
			response.Unauthorized(c, "用户已被禁用")
			c.Abort()
			return
		}

		// 主体信息显式进入请求上下文，后续检查不依赖任何全局状态
		c.Set("user", user)
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("current_tenant_id", claims.CurrentTenantID)
		c.Set("is_platform_admin", claims.IsPlatformAdmin)
		c.Set("claims", claims)

		c.Next()
	}
}

// Guard 统一分发器：按要求变体执行对应检查
//
// 四种要求的求值顺序和短路行为都在这里，一处可见。
func (m *AuthMiddleware) Guard(requirement authz.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		uid := userID.(uint)

		switch req := requirement.(type) {
		case authz.RoleRequirement:
			m.checkRole(c, uid, req)
		case authz.PermissionRequirement:
			m.checkPermission(c, uid, req)
		case authz.TenantAccessRequirement:
			m.checkTenantAccess(c, uid, req)
		case authz.OwnershipOrRoleRequirement:
			m.checkOwnershipOrRole(c, uid, req)
		default:
			// 未知要求类型按拒绝处理
			response.Forbidden(c, "未知的授权要求")
			c.Abort()
		}
	}
}

// ========== 便捷包装 ==========

// RequireRole 要求持有角色集合中至少一个角色
func (m *AuthMiddleware) RequireRole(codes ...string) gin.HandlerFunc {
	return m.Guard(authz.RoleRequirement{Codes: codes})
}

// RequireAllRoles 要求持有角色集合中的全部角色
func (m *AuthMiddleware) RequireAllRoles(codes ...string) gin.HandlerFunc {
	return m.Guard(authz.RoleRequirement{Codes: codes, RequireAll: true})
}

// RequirePermission 要求通过访问解析器对(action, resource)的完整判定
func (m *AuthMiddleware) RequirePermission(action, resource string) gin.HandlerFunc {
	return m.Guard(authz.PermissionRequirement{Action: action, Resource: resource})
}

// RequireTenantAccess 要求在参数指定的租户内持有授权记录
func (m *AuthMiddleware) RequireTenantAccess(param string) gin.HandlerFunc {
	return m.Guard(authz.TenantAccessRequirement{Param: param, AllowPlatformAdmin: true})
}

// RequireOwnerOrRole 要求是目标用户本人或持有指定角色之一
func (m *AuthMiddleware) RequireOwnerOrRole(param string, codes ...string) gin.HandlerFunc {
	return m.Guard(authz.OwnershipOrRoleRequirement{Param: param, Codes: codes})
}

// ========== 各要求变体的检查 ==========

func (m *AuthMiddleware) checkRole(c *gin.Context, userID uint, req authz.RoleRequirement) {
	var ok bool
	var err error
	if req.RequireAll {
		ok, err = m.checker.HasAllRoles(c.Request.Context(), userID, req.Codes)
	} else {
		ok, err = m.checker.HasAnyRole(c.Request.Context(), userID, req.Codes)
	}
	if err != nil {
		m.failClosed(c, err)
		return
	}
	if !ok {
		response.Forbidden(c, "权限不足：需要角色 "+strings.Join(req.Codes, "、"))
		c.Abort()
		return
	}
	c.Next()
}

func (m *AuthMiddleware) checkPermission(c *gin.Context, userID uint, req authz.PermissionRequirement) {
	tenantID := c.GetUint("current_tenant_id")
	if tenantID == 0 {
		response.Forbidden(c, "未选择操作租户")
		c.Abort()
		return
	}

	decision, err := m.checker.Decide(c.Request.Context(), userID, tenantID, req.Action, req.Resource, requestAttributes(c))
	if err != nil {
		m.failClosed(c, err)
		return
	}
	if !decision.Allowed {
		response.Forbidden(c, "权限不足：需要 "+req.Resource+":"+req.Action+"（"+decision.Reason+"）")
		c.Abort()
		return
	}
	c.Next()
}

func (m *AuthMiddleware) checkTenantAccess(c *gin.Context, userID uint, req authz.TenantAccessRequirement) {
	tenantID, ok := paramAsUint(c, req.Param)
	if !ok {
		response.BadRequest(c, "租户ID格式错误")
		c.Abort()
		return
	}

	if req.AllowPlatformAdmin && c.GetBool("is_platform_admin") {
		c.Next()
		return
	}

	hasAccess, err := m.checker.HasTenantAccess(c.Request.Context(), userID, tenantID)
	if err != nil {
		m.failClosed(c, err)
		return
	}
	if !hasAccess {
		response.Forbidden(c, "无权访问该租户的数据")
		c.Abort()
		return
	}
	c.Next()
}

func (m *AuthMiddleware) checkOwnershipOrRole(c *gin.Context, userID uint, req authz.OwnershipOrRoleRequirement) {
	subjectID, ok := paramAsUint(c, req.Param)
	if !ok {
		response.BadRequest(c, "用户ID格式错误")
		c.Abort()
		return
	}

	if subjectID == userID {
		c.Next()
		return
	}

	if len(req.Codes) > 0 {
		hasRole, err := m.checker.HasAnyRole(c.Request.Context(), userID, req.Codes)
		if err != nil {
			m.failClosed(c, err)
			return
		}
		if hasRole {
			c.Next()
			return
		}
	}

	response.Forbidden(c, "只能操作自己的资源")
	c.Abort()
}

// failClosed 检查过程中的故障按拒绝处理（fail-closed），故障记入日志，
// 绝不因为存储出错而放行
func (m *AuthMiddleware) failClosed(c *gin.Context, err error) {
	logger.GetLogger().Errorf("授权检查故障，按拒绝处理: %v", err)
	response.Forbidden(c, "授权检查失败")
	c.Abort()
}

// paramAsUint 从路径或查询参数解析数值型ID，解析失败显式报错而不是静默置空
func paramAsUint(c *gin.Context, name string) (uint, bool) {
	value := c.Param(name)
	if value == "" {
		value = c.Query(name)
	}
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// requestAttributes 供策略条件匹配的请求上下文属性：
// 查询参数加上少量请求元数据
func requestAttributes(c *gin.Context) map[string]interface{} {
	attrs := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			attrs[key] = values[0]
		}
	}
	attrs["method"] = c.Request.Method
	attrs["path"] = c.FullPath()
	return attrs
}
