package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
//
// 用户本身不属于任何租户，只有通过 UserTenantRole 关联才获得租户内身份。
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"unique;not null;size:50;index"`
	Email        string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusLocked   = "locked"
)

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 用户是否可登录
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
