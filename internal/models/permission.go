package models

// Permission 权限模型 - 网络主体范围内的（操作, 资源）对
//
// 不变量：(landlord_id, action, resource) 唯一。可选关联一个默认策略，
// 角色挂接该权限且声明继承时生效。
type Permission struct {
	BaseModel
	LandlordID      uint   `gorm:"not null;index;uniqueIndex:idx_landlord_action_resource" json:"landlord_id"`
	Code            string `gorm:"size:100;not null" json:"code"`                                        // 权限代码，如 "members:update"
	Name            string `gorm:"size:100;not null" json:"name"`                                        // 权限名称
	Description     string `gorm:"size:255" json:"description"`                                          // 权限描述
	Action          string `gorm:"size:50;not null;uniqueIndex:idx_landlord_action_resource" json:"action"`   // 操作类型，如 "update"
	Resource        string `gorm:"size:50;not null;uniqueIndex:idx_landlord_action_resource" json:"resource"` // 资源类型，如 "members"
	DefaultPolicyID *uint  `gorm:"index" json:"default_policy_id"` // 默认策略

	// 关联关系
	Landlord      *Landlord `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
	DefaultPolicy *Policy   `gorm:"foreignKey:DefaultPolicyID" json:"default_policy,omitempty"`
}

// TableName 表名
func (p *Permission) TableName() string {
	return "permissions"
}

// 权限操作常量
const (
	ActionCreate = "create" // 创建
	ActionRead   = "read"   // 读取
	ActionUpdate = "update" // 更新
	ActionDelete = "delete" // 删除
	ActionList   = "list"   // 列表
)
