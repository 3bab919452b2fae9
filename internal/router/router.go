package router

import (
	"time"

	"authhub/internal/database"
	"authhub/internal/handlers"
	"authhub/internal/middleware"
	"authhub/internal/models"
	"authhub/internal/services"
	"authhub/pkg/config"
	"authhub/pkg/jwt"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	registerValidators()

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册自定义参数校验规则
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("effect", func(fl validator.FieldLevel) bool {
			return models.ValidEffect(fl.Field().String())
		})
	}
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {

	db := database.GetDB()
	cache := services.NewPermissionCache(database.GetRedisClient(), config.GetConfig().Redis.Prefix)

	userService := services.NewUserService(db)
	tenantService := services.NewTenantService(db)
	landlordService := services.NewLandlordService(db)
	roleService := services.NewRoleService(db, cache)
	permissionService := services.NewPermissionService(db, cache)
	policyService := services.NewPolicyService(db, cache)
	rolePermissionService := services.NewRolePermissionService(db, cache)
	grantService := services.NewGrantService(db)
	invitationService := services.NewInvitationService(db)
	accessService := services.NewAccessService(db, cache)

	auth := middleware.NewAuthMiddleware(userService, accessService, jwt.GetJWTManager())

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由
		authHandler := handlers.NewAuthHandler(userService, tenantService, jwt.GetJWTManager())
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
			authGroup.POST("/switch-tenant", auth.RequireLogin(), authHandler.SwitchTenant)
		}

		// 网络主体路由（仅平台管理员）
		landlordHandler := handlers.NewLandlordHandler(landlordService)
		landlords := api.Group("/landlords", auth.RequireLogin(), auth.RequireRole(models.RolePlatformAdmin))
		{
			landlords.POST("", landlordHandler.Setup)
			landlords.GET("", landlordHandler.GetAll)
			landlords.GET("/:id", landlordHandler.GetByID)
			landlords.PUT("/:id", landlordHandler.Update)
			landlords.DELETE("/:id", landlordHandler.Delete)
		}

		// 租户路由
		tenantHandler := handlers.NewTenantHandler(tenantService, grantService)
		tenants := api.Group("/tenants", auth.RequireLogin())
		{
			tenants.POST("", auth.RequirePermission("create", "tenant"), tenantHandler.Create)
			tenants.GET("", auth.RequirePermission("list", "tenant"), tenantHandler.GetByLandlord)
			tenants.GET("/:id", auth.RequireTenantAccess("id"), tenantHandler.GetByID)
			tenants.PUT("/:id", auth.RequirePermission("update", "tenant"), tenantHandler.Update)
			tenants.PATCH("/:id/status", auth.RequirePermission("update", "tenant"), tenantHandler.SetStatus)
			tenants.DELETE("/:id", auth.RequirePermission("delete", "tenant"), tenantHandler.Delete)

			// 成员与授权
			tenants.GET("/:id/members", auth.RequireTenantAccess("id"), tenantHandler.GetMembers)
			tenants.GET("/:id/grants", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), tenantHandler.GetGrants)
			tenants.POST("/:id/grants", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), tenantHandler.GrantRole)
			tenants.DELETE("/:id/grants", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), tenantHandler.RevokeRole)
		}

		// 用户路由
		userHandler := handlers.NewUserHandler(userService)
		users := api.Group("/users", auth.RequireLogin())
		{
			users.POST("", auth.RequirePermission("create", "user"), userHandler.Create)
			users.GET("", auth.RequirePermission("list", "user"), userHandler.GetAll)
			users.GET("/:id", auth.RequireOwnerOrRole("id", models.RolePlatformAdmin, models.RoleTenantAdmin), userHandler.GetByID)
			users.PUT("/:id", auth.RequireOwnerOrRole("id", models.RolePlatformAdmin, models.RoleTenantAdmin), userHandler.Update)
			users.PATCH("/:id/status", auth.RequirePermission("update", "user"), userHandler.SetStatus)
			users.DELETE("/:id", auth.RequirePermission("delete", "user"), userHandler.Delete)
			users.POST("/:id/reset-password", auth.RequireOwnerOrRole("id", models.RolePlatformAdmin), userHandler.ResetPassword)
			users.GET("/:id/grants", auth.RequireOwnerOrRole("id", models.RolePlatformAdmin, models.RoleTenantAdmin), userHandler.GetGrants)
		}

		// 角色路由
		roleHandler := handlers.NewRoleHandler(roleService, rolePermissionService)
		roles := api.Group("/roles", auth.RequireLogin())
		{
			roles.POST("", auth.RequirePermission("create", "role"), roleHandler.Create)
			roles.GET("", auth.RequirePermission("list", "role"), roleHandler.GetByLandlord)
			roles.GET("/:id", auth.RequirePermission("read", "role"), roleHandler.GetByID)
			roles.PUT("/:id", auth.RequirePermission("update", "role"), roleHandler.Update)
			roles.DELETE("/:id", auth.RequirePermission("delete", "role"), roleHandler.Delete)

			// 角色权限关联
			roles.GET("/:id/permissions", auth.RequirePermission("read", "role"), roleHandler.GetEffectivePermissions)
			roles.POST("/:id/permissions", auth.RequirePermission("update", "role"), roleHandler.AttachPermission)
			roles.PUT("/:id/permissions/:permission_id", auth.RequirePermission("update", "role"), roleHandler.UpdateAttachment)
			roles.DELETE("/:id/permissions/:permission_id", auth.RequirePermission("update", "role"), roleHandler.DetachPermission)
		}

		// 权限路由
		permissionHandler := handlers.NewPermissionHandler(permissionService)
		permissions := api.Group("/permissions", auth.RequireLogin())
		{
			permissions.POST("", auth.RequirePermission("create", "permission"), permissionHandler.Create)
			permissions.GET("", auth.RequirePermission("list", "permission"), permissionHandler.GetByLandlord)
			permissions.GET("/:id", auth.RequirePermission("read", "permission"), permissionHandler.GetByID)
			permissions.PUT("/:id", auth.RequirePermission("update", "permission"), permissionHandler.Update)
			permissions.DELETE("/:id", auth.RequirePermission("delete", "permission"), permissionHandler.Delete)
		}

		// 策略路由
		policyHandler := handlers.NewPolicyHandler(policyService)
		policies := api.Group("/policies", auth.RequireLogin())
		{
			policies.POST("", auth.RequirePermission("create", "policy"), policyHandler.Create)
			policies.GET("", auth.RequirePermission("list", "policy"), policyHandler.GetByLandlord)
			policies.GET("/:id", auth.RequirePermission("read", "policy"), policyHandler.GetByID)
			policies.PUT("/:id", auth.RequirePermission("update", "policy"), policyHandler.Update)
			policies.DELETE("/:id", auth.RequirePermission("delete", "policy"), policyHandler.Delete)
		}

		// 租户邀请路由
		invitationHandler := handlers.NewInvitationHandler(invitationService)
		invitations := api.Group("/invitations", auth.RequireLogin())
		{
			invitations.POST("", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), invitationHandler.Create)
			invitations.POST("/accept", invitationHandler.Accept)
			invitations.DELETE("/:id", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), invitationHandler.Cancel)
			invitations.GET("", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), invitationHandler.GetByTenant)
		}

		// 访问决策路由（管理端排查用）
		accessHandler := handlers.NewAccessHandler(accessService)
		access := api.Group("/access", auth.RequireLogin())
		{
			access.POST("/check", auth.RequireRole(models.RolePlatformAdmin, models.RoleTenantAdmin), accessHandler.Check)
		}
	}
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "AuthHub",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
