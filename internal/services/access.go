package services

import (
	"context"
	"errors"

	"authhub/internal/authz"
	"authhub/internal/models"

	"gorm.io/gorm"
)

// AccessService 授权判定服务：组装实体存储和访问解析器
//
// 实现 authz.Store 窄接口，角色生效权限经过写穿透缓存。
type AccessService struct {
	db             *gorm.DB
	rolePermission *RolePermissionService
	resolver       *authz.Resolver
}

func NewAccessService(db *gorm.DB, cache *PermissionCache) *AccessService {
	s := &AccessService{
		db:             db,
		rolePermission: NewRolePermissionService(db, cache),
	}
	s.resolver = authz.NewResolver(s)
	return s
}

// Decide 用户U能否在租户T内对资源R执行操作A
func (s *AccessService) Decide(ctx context.Context, userID, tenantID uint, action, resource string, reqCtx map[string]interface{}) (authz.Decision, error) {
	return s.resolver.Decide(ctx, userID, tenantID, action, resource, reqCtx)
}

// ========== authz.Store 实现 ==========

// GetUser 按ID获取用户，不存在返回 (nil, nil)
func (s *AccessService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetTenant 按ID获取租户，不存在返回 (nil, nil)
func (s *AccessService) GetTenant(ctx context.Context, tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetUserTenantRoles 获取用户在指定租户内的全部角色
func (s *AccessService) GetUserTenantRoles(ctx context.Context, userID, tenantID uint) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_tenant_roles ON roles.id = user_tenant_roles.role_id").
		Where("user_tenant_roles.user_id = ? AND user_tenant_roles.tenant_id = ?", userID, tenantID).
		Find(&roles).Error
	return roles, err
}

// GetRoleEffectivePermissions 角色的生效（权限, 策略）集合
func (s *AccessService) GetRoleEffectivePermissions(ctx context.Context, roleID uint) ([]authz.EffectivePermission, error) {
	return s.rolePermission.ResolveEffectivePermissions(ctx, roleID)
}

// GetTenantPolicies 直接作用于租户的独立策略
func (s *AccessService) GetTenantPolicies(ctx context.Context, tenantID uint) ([]models.Policy, error) {
	var policies []models.Policy
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&policies).Error
	return policies, err
}

// ========== 中间件使用的简单检查 ==========

// HasTenantAccess 用户在指定租户内是否持有任何授权记录
func (s *AccessService) HasTenantAccess(ctx context.Context, userID, tenantID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserTenantRole{}).
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Count(&count).Error
	return count > 0, err
}

// HasAnyRole 用户是否持有角色代码集合中的至少一个（不限租户）
func (s *AccessService) HasAnyRole(ctx context.Context, userID uint, codes []string) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserTenantRole{}).
		Joins("JOIN roles ON roles.id = user_tenant_roles.role_id").
		Where("user_tenant_roles.user_id = ? AND roles.code IN ?", userID, codes).
		Count(&count).Error
	return count > 0, err
}

// HasAllRoles 用户是否持有角色代码集合中的全部角色（不限租户）
func (s *AccessService) HasAllRoles(ctx context.Context, userID uint, codes []string) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}
	var distinctCodes int64
	err := s.db.WithContext(ctx).Model(&models.UserTenantRole{}).
		Joins("JOIN roles ON roles.id = user_tenant_roles.role_id").
		Where("user_tenant_roles.user_id = ? AND roles.code IN ?", userID, codes).
		Distinct("roles.code").
		Count(&distinctCodes).Error
	if err != nil {
		return false, err
	}
	return distinctCodes == int64(len(codes)), nil
}
