package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/gorm"
)

// RoleService 角色管理
type RoleService struct {
	db    *gorm.DB
	cache *PermissionCache
}

func NewRoleService(db *gorm.DB, cache *PermissionCache) *RoleService {
	return &RoleService{db: db, cache: cache}
}

// ========== 基础CRUD方法 ==========

// Create 在网络主体下创建角色
func (s *RoleService) Create(ctx context.Context, landlordID uint, code, name, description string) (*models.Role, error) {
	if err := s.validateCreateParams(code, name); err != nil {
		return nil, err
	}

	var landlordCount int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).Where("id = ?", landlordID).Count(&landlordCount)
	if landlordCount == 0 {
		return nil, apperrors.NewValidation("网络主体不存在")
	}

	// 角色代码在同一网络主体内唯一
	var count int64
	s.db.WithContext(ctx).Model(&models.Role{}).
		Where("landlord_id = ? AND code = ?", landlordID, code).Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("角色代码已存在")
	}

	role := &models.Role{
		LandlordID:  landlordID,
		Code:        code,
		Name:        name,
		Description: description,
		Status:      models.RoleStatusActive,
		IsSystem:    false,
	}
	err := s.db.WithContext(ctx).Create(role).Error
	return role, err
}

// GetByID 根据ID获取角色
func (s *RoleService) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("角色不存在")
	}
	return &role, err
}

// GetByLandlordWithPage 分页获取网络主体下的角色
func (s *RoleService) GetByLandlordWithPage(ctx context.Context, landlordID uint, status string, page, pageSize int) ([]*models.Role, int64, error) {
	var roles []*models.Role
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Role{}).Where("landlord_id = ?", landlordID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Permissions").Offset(offset).Limit(pageSize).Find(&roles).Error
	return roles, total, err
}

// Update 更新角色
func (s *RoleService) Update(ctx context.Context, id uint, name, description, status string) (*models.Role, error) {
	if err := s.validateUpdateParams(name, status); err != nil {
		return nil, err
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("角色不存在")
		}
		return nil, err
	}

	// 系统角色不能修改
	if role.IsSystem {
		return nil, apperrors.NewValidation("系统角色不允许修改")
	}

	role.Name = name
	role.Description = description
	role.Status = status
	err := s.db.WithContext(ctx).Save(&role).Error
	return &role, err
}

// Delete 删除角色，连带清理关联并失效缓存
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("角色不存在")
		}
		return err
	}

	if role.IsSystem {
		return apperrors.NewValidation("系统角色不允许删除")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&models.UserTenantRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
	if err != nil {
		return err
	}

	return s.cache.InvalidateRole(ctx, id)
}

// ========== 验证方法 ==========

func (s *RoleService) validateCreateParams(code, name string) error {
	if !validateCode(code) {
		return apperrors.NewValidation("角色代码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 50 {
		return apperrors.NewValidation("角色名称长度必须在2-50个字符之间")
	}
	return nil
}

func (s *RoleService) validateUpdateParams(name, status string) error {
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 50 {
		return apperrors.NewValidation("角色名称长度必须在2-50个字符之间")
	}
	if status != models.RoleStatusActive && status != models.RoleStatusInactive {
		return apperrors.NewValidation("状态只能是active或inactive")
	}
	return nil
}
