package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authhub/internal/authz"
	"authhub/internal/models"
	"authhub/internal/services"
	apperrors "authhub/pkg/errors"
	"authhub/pkg/jwt"
	"authhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubChecker 按字段注入各检查行为的桩
type stubChecker struct {
	decide          func(userID, tenantID uint, action, resource string) (authz.Decision, error)
	hasAnyRole      func(userID uint, codes []string) (bool, error)
	hasAllRoles     func(userID uint, codes []string) (bool, error)
	hasTenantAccess func(userID, tenantID uint) (bool, error)
}

func (s *stubChecker) Decide(ctx context.Context, userID, tenantID uint, action, resource string, attrs map[string]interface{}) (authz.Decision, error) {
	return s.decide(userID, tenantID, action, resource)
}

func (s *stubChecker) HasAnyRole(ctx context.Context, userID uint, codes []string) (bool, error) {
	return s.hasAnyRole(userID, codes)
}

func (s *stubChecker) HasAllRoles(ctx context.Context, userID uint, codes []string) (bool, error) {
	return s.hasAllRoles(userID, codes)
}

func (s *stubChecker) HasTenantAccess(ctx context.Context, userID, tenantID uint) (bool, error) {
	return s.hasTenantAccess(userID, tenantID)
}

// fakeLogin 测试用登录桩：直接把主体信息放入上下文
func fakeLogin(userID, tenantID uint, isPlatformAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("current_tenant_id", tenantID)
		c.Set("is_platform_admin", isPlatformAdmin)
		c.Next()
	}
}

func okHandler(c *gin.Context) {
	response.Success(c, gin.H{"reached": true})
}

func doRequest(router *gin.Engine, method, path string) (*response.Response, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)

	var body response.Response
	json.Unmarshal(w.Body.Bytes(), &body)
	return &body, w
}

func TestGuardRequiresLogin(t *testing.T) {
	m := &AuthMiddleware{checker: &stubChecker{}}

	router := gin.New()
	router.GET("/protected", m.Guard(authz.RoleRequirement{Codes: []string{"staff"}}), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/protected")
	assert.Equal(t, apperrors.CodeUnauthorized, body.Code)
}

func TestGuardRoleRequirement(t *testing.T) {
	granted := map[string]bool{"staff": true}
	checker := &stubChecker{
		hasAnyRole: func(userID uint, codes []string) (bool, error) {
			for _, code := range codes {
				if granted[code] {
					return true, nil
				}
			}
			return false, nil
		},
		hasAllRoles: func(userID uint, codes []string) (bool, error) {
			for _, code := range codes {
				if !granted[code] {
					return false, nil
				}
			}
			return true, nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(1, 1, false))
	router.GET("/any", m.RequireRole("staff", "auditor"), okHandler)
	router.GET("/all", m.RequireAllRoles("staff", "auditor"), okHandler)
	router.GET("/none", m.RequireRole("auditor"), okHandler)

	// OR语义：持有任一角色即可
	body, _ := doRequest(router, http.MethodGet, "/any")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)

	// AND语义：缺少auditor被拒
	body, _ = doRequest(router, http.MethodGet, "/all")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)

	// 一个都不持有
	body, _ = doRequest(router, http.MethodGet, "/none")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
}

func TestGuardPermissionRequirement(t *testing.T) {
	checker := &stubChecker{
		decide: func(userID, tenantID uint, action, resource string) (authz.Decision, error) {
			if action == "read" && resource == "members" {
				return authz.Allow("测试放行"), nil
			}
			return authz.Deny("没有适用的策略"), nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(1, 7, false))
	router.GET("/members", m.RequirePermission("read", "members"), okHandler)
	router.DELETE("/members", m.RequirePermission("delete", "members"), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/members")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)

	// DENY判定转成403，原因附在消息里
	body, _ = doRequest(router, http.MethodDelete, "/members")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
	assert.Contains(t, body.Message, "没有适用的策略")
}

func TestGuardPermissionRequirementNoTenant(t *testing.T) {
	m := &AuthMiddleware{checker: &stubChecker{}}

	router := gin.New()
	router.Use(fakeLogin(1, 0, false))
	router.GET("/members", m.RequirePermission("read", "members"), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/members")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
}

func TestGuardFailClosed(t *testing.T) {
	// 检查过程的存储故障必须按拒绝处理，绝不放行
	checker := &stubChecker{
		decide: func(userID, tenantID uint, action, resource string) (authz.Decision, error) {
			return authz.Decision{}, errors.New("storage unavailable")
		},
		hasAnyRole: func(userID uint, codes []string) (bool, error) {
			return false, errors.New("storage unavailable")
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(1, 7, false))
	router.GET("/perm", m.RequirePermission("read", "members"), okHandler)
	router.GET("/role", m.RequireRole("staff"), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/perm")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)

	body, _ = doRequest(router, http.MethodGet, "/role")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
}

func TestGuardTenantAccess(t *testing.T) {
	checker := &stubChecker{
		hasTenantAccess: func(userID, tenantID uint) (bool, error) {
			return tenantID == 5, nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(1, 0, false))
	router.GET("/tenants/:id", m.RequireTenantAccess("id"), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/tenants/5")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)

	body, _ = doRequest(router, http.MethodGet, "/tenants/6")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)

	// ID格式错误显式报400而不是当成0去查
	body, _ = doRequest(router, http.MethodGet, "/tenants/abc")
	assert.Equal(t, apperrors.CodeInvalidParam, body.Code)
}

func TestGuardTenantAccessPlatformAdminBypass(t *testing.T) {
	checker := &stubChecker{
		hasTenantAccess: func(userID, tenantID uint) (bool, error) {
			return false, nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(1, 0, true))
	router.GET("/tenants/:id", m.RequireTenantAccess("id"), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/tenants/99")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)
}

func TestGuardOwnershipOrRole(t *testing.T) {
	checker := &stubChecker{
		hasAnyRole: func(userID uint, codes []string) (bool, error) {
			return false, nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(3, 0, false))
	router.GET("/users/:id", m.RequireOwnerOrRole("id", models.RoleTenantAdmin), okHandler)

	// 本人放行
	body, _ := doRequest(router, http.MethodGet, "/users/3")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)

	// 非本人且无管理角色
	body, _ = doRequest(router, http.MethodGet, "/users/4")
	assert.Equal(t, apperrors.CodeForbidden, body.Code)
}

func TestGuardOwnershipOrRoleAdminPath(t *testing.T) {
	checker := &stubChecker{
		hasAnyRole: func(userID uint, codes []string) (bool, error) {
			return true, nil
		},
	}
	m := &AuthMiddleware{checker: checker}

	router := gin.New()
	router.Use(fakeLogin(3, 0, false))
	router.GET("/users/:id", m.RequireOwnerOrRole("id", models.RoleTenantAdmin), okHandler)

	body, _ := doRequest(router, http.MethodGet, "/users/4")
	assert.Equal(t, apperrors.CodeSuccess, body.Code)
}

// ========== RequireLogin ==========

func newLoginFixture(t *testing.T) (*AuthMiddleware, *models.User, *jwt.JWTManager) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserTenantRole{}))

	user := &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Secret@123"))
	require.NoError(t, db.Create(user).Error)

	jwtManager := jwt.NewJWTManager("test-secret", time.Hour)
	m := NewAuthMiddleware(services.NewUserService(db), &stubChecker{}, jwtManager)
	return m, user, jwtManager
}

func TestRequireLogin(t *testing.T) {
	m, user, jwtManager := newLoginFixture(t)

	router := gin.New()
	router.GET("/me", m.RequireLogin(), func(c *gin.Context) {
		response.Success(c, gin.H{"user_id": c.GetUint("user_id")})
	})

	// 无认证头
	body, _ := doRequest(router, http.MethodGet, "/me")
	assert.Equal(t, apperrors.CodeUnauthorized, body.Code)

	// 伪造Token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, apperrors.CodeUnauthorized, resp.Code)

	// 合法Token
	token, err := jwtManager.GenerateToken(user.ID, 1, user.Username, false)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, apperrors.CodeSuccess, resp.Code)
}
