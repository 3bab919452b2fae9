package models

import (
	"time"
)

// TenantInvitation 租户邀请
//
// 接受邀请时创建对应的 UserTenantRole 授权记录。
type TenantInvitation struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	TenantID     uint       `gorm:"not null;index" json:"tenant_id"`
	InviterID    uint       `gorm:"not null" json:"inviter_id"`                        // 邀请人
	InviteeEmail string     `gorm:"size:200;not null;index" json:"invitee_email"`      // 被邀请人邮箱
	RoleID       uint       `gorm:"not null" json:"role_id"`                           // 接受后授予的角色
	Status       string     `gorm:"size:20;not null;default:'pending'" json:"status"`  // pending/accepted/rejected/expired
	Token        string     `gorm:"size:100;uniqueIndex" json:"token"`                 // 邀请令牌
	ExpiredAt    time.Time  `gorm:"not null" json:"expired_at"`                        // 过期时间
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`                             // 接受时间
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Tenant  Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"tenant,omitempty"`
	Inviter User   `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
	Role    Role   `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName 指定表名
func (TenantInvitation) TableName() string {
	return "tenant_invitations"
}

// 邀请状态常量
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusExpired  = "expired"
)

// IsValid 检查邀请是否有效
func (ti *TenantInvitation) IsValid() bool {
	return ti.Status == InvitationStatusPending && time.Now().Before(ti.ExpiredAt)
}
