package models

import "gorm.io/datatypes"

// Policy ABAC策略模型
//
// 不变量：effect 只能是 ALLOW/DENY 之一；actions/resources 非空时策略才有意义。
// tenant_id 为空表示网络主体级策略，非空表示仅作用于该租户。
type Policy struct {
	BaseModel
	LandlordID  uint                        `gorm:"not null;index;uniqueIndex:idx_landlord_policy_code" json:"landlord_id"`
	TenantID    *uint                       `gorm:"index" json:"tenant_id"` // 租户范围，空为网络主体级
	Code        string                      `gorm:"size:100;not null;uniqueIndex:idx_landlord_policy_code" json:"code"`
	Name        string                      `gorm:"size:100;not null" json:"name"`
	Description string                      `gorm:"size:255" json:"description"`
	Effect      string                      `gorm:"size:10;not null" json:"effect"`          // ALLOW / DENY
	Actions     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"actions"`      // 适用操作列表
	Resources   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"resources"`    // 适用资源列表
	Conditions  datatypes.JSONMap           `gorm:"type:jsonb" json:"conditions"`            // 条件谓词，键值相等语义

	// 关联关系
	Landlord *Landlord `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
	Tenant   *Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}

// TableName 表名
func (p *Policy) TableName() string {
	return "policies"
}

// 策略效果常量
const (
	PolicyEffectAllow = "ALLOW"
	PolicyEffectDeny  = "DENY"
)

// ValidEffect 效果是否合法
func ValidEffect(effect string) bool {
	return effect == PolicyEffectAllow || effect == PolicyEffectDeny
}
