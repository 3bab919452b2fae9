package authz

import (
	"context"

	"authhub/internal/models"
)

// EffectivePermission 角色权限关联应用override/继承规则后的生效结果
//
// Policy为nil表示该关联没有可执行策略（inherit=false且无override），
// 求值时按隐式DENY处理。
type EffectivePermission struct {
	Permission models.Permission `json:"permission"`
	Policy     *models.Policy    `json:"policy"`
}

// Store 实体存储协作方的窄接口
//
// 访问解析器只读取这几个契约；事务、连接池、表结构都是存储层自己的事。
// 查询目标不存在时返回 (nil, nil)，由调用方决定错误语义；
// error只用于真正的存储故障，故障向上传播而不是悄悄当作DENY。
type Store interface {
	// GetUser 按ID获取用户
	GetUser(ctx context.Context, userID uint) (*models.User, error)
	// GetTenant 按ID获取租户
	GetTenant(ctx context.Context, tenantID uint) (*models.Tenant, error)
	// GetUserTenantRoles 获取用户在指定租户内持有的全部角色
	GetUserTenantRoles(ctx context.Context, userID, tenantID uint) ([]models.Role, error)
	// GetRoleEffectivePermissions 获取角色的生效（权限, 策略）集合
	GetRoleEffectivePermissions(ctx context.Context, roleID uint) ([]EffectivePermission, error)
	// GetTenantPolicies 获取直接作用于租户的独立策略（不经角色关联）
	GetTenantPolicies(ctx context.Context, tenantID uint) ([]models.Policy, error)
}
