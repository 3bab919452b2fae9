package models

import "gorm.io/datatypes"

// Landlord 网络主体模型 - 顶层租户所有者（如连锁品牌总部）
//
// 角色、权限、策略都挂在网络主体下，而不是全局共享。
type Landlord struct {
	BaseModel
	Name   string         `json:"name" gorm:"unique;not null;size:100"`
	Config datatypes.JSON `json:"config" gorm:"type:jsonb"`
	Status string         `json:"status" gorm:"default:'active';size:20"`

	// 关联关系
	Tenants []Tenant `gorm:"foreignKey:LandlordID" json:"tenants,omitempty"`
}

// TableName 表名
func (l *Landlord) TableName() string {
	return "landlords"
}

// 网络主体状态常量
const (
	LandlordStatusActive   = "active"
	LandlordStatusInactive = "inactive"
)
