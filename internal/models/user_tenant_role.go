package models

import "time"

// UserTenantRole 用户-租户-角色关联表
//
// 用户在租户内获得角色（进而获得权限）的唯一途径。
// 不变量：三元组唯一，同一租户内一个用户可以持有多个角色。
type UserTenantRole struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_tenant_role" json:"user_id"`
	TenantID  uint      `gorm:"not null;uniqueIndex:idx_user_tenant_role" json:"tenant_id"`
	RoleID    uint      `gorm:"not null;uniqueIndex:idx_user_tenant_role" json:"role_id"`
	GrantedBy *uint     `json:"granted_by"` // 授予人ID
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
	Role   Role   `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role,omitempty"`
}

// TableName 指定表名
func (UserTenantRole) TableName() string {
	return "user_tenant_roles"
}
