package models

import "gorm.io/datatypes"

// Tenant 租户模型 - 网络主体下的组织单元（如门店/分支机构）
//
// 不变量：每个租户恰好属于一个网络主体。
type Tenant struct {
	BaseModel
	LandlordID uint           `json:"landlord_id" gorm:"not null;index;uniqueIndex:idx_landlord_tenant_code"`
	Name       string         `json:"name" gorm:"not null;size:100"`
	Code       string         `json:"code" gorm:"not null;size:50;uniqueIndex:idx_landlord_tenant_code"`
	Config     datatypes.JSON `json:"config" gorm:"type:jsonb"`
	Status     string         `json:"status" gorm:"default:'active';size:20"`

	// 关联关系
	Landlord *Landlord `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
}

// TableName 表名
func (t *Tenant) TableName() string {
	return "tenants"
}

// IsActive 租户是否可用
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// 租户状态常量
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)
