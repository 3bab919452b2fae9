package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/gorm"
)

// UserService 用户管理
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 创建用户
func (s *UserService) Create(ctx context.Context, username, email, password, name string, phone *string) (*models.User, error) {
	if err := s.validateCreateParams(username, email, password, name); err != nil {
		return nil, err
	}

	var usernameCount int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&usernameCount)
	if usernameCount > 0 {
		return nil, apperrors.NewConflict("用户名已存在")
	}

	var emailCount int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&emailCount)
	if emailCount > 0 {
		return nil, apperrors.NewConflict("邮箱已存在")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Name:     name,
		Phone:    phone,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, apperrors.NewInternal("密码加密失败")
	}

	err := s.db.WithContext(ctx).Create(user).Error
	return user, err
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("用户不存在")
	}
	return &user, err
}

// GetByUsername 根据用户名获取用户
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("用户不存在")
	}
	return &user, err
}

// GetAllWithPage 分页获取用户列表
func (s *UserService) GetAllWithPage(ctx context.Context, status string, page, pageSize int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&users).Error
	return users, total, err
}

// Update 更新用户基本信息
func (s *UserService) Update(ctx context.Context, id uint, name string, phone *string) (*models.User, error) {
	if !validateName(name) {
		return nil, apperrors.NewValidation("姓名长度必须在2-100个字符之间")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("用户不存在")
		}
		return nil, err
	}

	user.Name = name
	user.Phone = phone
	err := s.db.WithContext(ctx).Save(&user).Error
	return &user, err
}

// SetStatus 修改用户状态（启用/停用/锁定）
func (s *UserService) SetStatus(ctx context.Context, id uint, status string) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusInactive && status != models.UserStatusLocked {
		return nil, apperrors.NewValidation("状态只能是active、inactive或locked")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("用户不存在")
		}
		return nil, err
	}

	user.Status = status
	err := s.db.WithContext(ctx).Save(&user).Error
	return &user, err
}

// Delete 删除用户，连带清理授权记录
func (s *UserService) Delete(ctx context.Context, id uint) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("用户不存在")
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserTenantRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// ResetPassword 重置密码
func (s *UserService) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidation("密码长度至少8个字符")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("用户不存在")
		}
		return err
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperrors.NewInternal("密码加密失败")
	}
	return s.db.WithContext(ctx).Save(&user).Error
}

// ========== 认证相关方法 ==========

// Authenticate 用户名密码认证，成功时更新最近登录时间
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewUnauthorized("用户名或密码错误")
	}
	if err != nil {
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.NewUnauthorized("用户名或密码错误")
	}
	if !user.IsActive() {
		return nil, apperrors.NewUnauthorized("用户已被禁用")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserGrants 获取用户的全部租户授权记录
func (s *UserService) GetUserGrants(ctx context.Context, userID uint) ([]models.UserTenantRole, error) {
	var grants []models.UserTenantRole
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Tenant").
		Preload("Role").
		Find(&grants).Error
	return grants, err
}

// IsPlatformAdmin 用户是否在任意租户内持有平台超级管理员角色
func (s *UserService) IsPlatformAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserTenantRole{}).
		Joins("JOIN roles ON roles.id = user_tenant_roles.role_id").
		Where("user_tenant_roles.user_id = ? AND roles.code = ?", userID, models.RolePlatformAdmin).
		Count(&count).Error
	return count > 0, err
}

// ========== 验证方法 ==========

func (s *UserService) validateCreateParams(username, email, password, name string) error {
	if len(username) < 3 || len(username) > 50 {
		return apperrors.NewValidation("用户名长度必须在3-50个字符之间")
	}
	if !strings.Contains(email, "@") {
		return apperrors.NewValidation("邮箱格式错误")
	}
	if len(password) < 8 {
		return apperrors.NewValidation("密码长度至少8个字符")
	}
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 100 {
		return apperrors.NewValidation("姓名长度必须在2-100个字符之间")
	}
	return nil
}
