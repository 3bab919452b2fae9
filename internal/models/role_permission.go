package models

import "time"

// RolePermission 角色权限关联表
//
// 生效策略规则：override策略存在则用override；否则 inherit_policy 为真时
// 用权限的默认策略；两者都没有时该关联没有可执行策略，下游按隐式DENY处理。
type RolePermission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RoleID        uint      `gorm:"not null;uniqueIndex:idx_role_permission" json:"role_id"`
	PermissionID  uint      `gorm:"not null;uniqueIndex:idx_role_permission" json:"permission_id"`
	PolicyID      *uint     `gorm:"index" json:"policy_id"`                 // override策略
	// 是否继承权限默认策略。不能带gorm默认值标签：带default标签的
	// 零值字段在Create时会被省略，false会被数据库默认值覆盖成true
	InheritPolicy bool `json:"inherit_policy"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	Role       Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"role,omitempty"`
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission,omitempty"`
	Policy     *Policy    `gorm:"foreignKey:PolicyID" json:"policy,omitempty"`
}

// TableName 指定表名
func (RolePermission) TableName() string {
	return "role_permissions"
}
