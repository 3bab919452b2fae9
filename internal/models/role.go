package models

// Role 角色模型 - 网络主体范围内的权限集合
//
// 不变量：code 在同一网络主体内唯一。
type Role struct {
	BaseModel
	LandlordID  uint   `gorm:"not null;index;uniqueIndex:idx_landlord_role_code" json:"landlord_id"`
	Code        string `gorm:"size:100;not null;uniqueIndex:idx_landlord_role_code" json:"code"` // 角色代码，如 "tenant_admin"
	Name        string `gorm:"size:100;not null" json:"name"`                                    // 角色名称
	Description string `gorm:"size:255" json:"description"`                                      // 角色描述
	IsSystem    bool   `gorm:"default:false" json:"is_system"`                                   // 是否系统角色（不可删除）
	Status      string `gorm:"size:20;default:'active'" json:"status"`                           // 状态：active, inactive

	// 关联关系
	Landlord    *Landlord    `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// TableName 表名
func (r *Role) TableName() string {
	return "roles"
}

// 角色状态常量
const (
	RoleStatusActive   = "active"
	RoleStatusInactive = "inactive"
)

// 系统预定义角色常量
//
// RolePlatformAdmin 是保留的超级管理员标记：持有该角色的用户在授权
// 判定中无条件放行（系统引导专用的特权路径，命中时记录Warn日志）。
const (
	RolePlatformAdmin = "platform_admin" // 平台超级管理员
	RoleTenantAdmin   = "tenant_admin"   // 租户管理员
	RoleTenantUser    = "tenant_user"    // 租户普通用户
)
