package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/gorm"
)

// PermissionService 权限管理
type PermissionService struct {
	db    *gorm.DB
	cache *PermissionCache
}

func NewPermissionService(db *gorm.DB, cache *PermissionCache) *PermissionService {
	return &PermissionService{db: db, cache: cache}
}

// ========== 基础CRUD方法 ==========

// Create 在网络主体下创建权限
//
// 权限代码由资源和操作推导（"members:update"），
// (网络主体, 操作, 资源) 三元组唯一。
func (s *PermissionService) Create(ctx context.Context, landlordID uint, action, resource, name, description string, defaultPolicyID *uint) (*models.Permission, error) {
	if !validateCode(action) || !validateCode(resource) {
		return nil, apperrors.NewValidation("操作和资源长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 100 {
		return nil, apperrors.NewValidation("权限名称长度必须在2-100个字符之间")
	}

	var landlordCount int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).Where("id = ?", landlordID).Count(&landlordCount)
	if landlordCount == 0 {
		return nil, apperrors.NewValidation("网络主体不存在")
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Permission{}).
		Where("landlord_id = ? AND action = ? AND resource = ?", landlordID, action, resource).
		Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("该操作和资源的权限已存在")
	}

	if defaultPolicyID != nil {
		if err := s.validateDefaultPolicy(ctx, *defaultPolicyID, landlordID); err != nil {
			return nil, err
		}
	}

	permission := &models.Permission{
		LandlordID:      landlordID,
		Code:            resource + ":" + action,
		Action:          action,
		Resource:        resource,
		Name:            name,
		Description:     description,
		DefaultPolicyID: defaultPolicyID,
	}
	err := s.db.WithContext(ctx).Create(permission).Error
	return permission, err
}

// GetByID 根据ID获取权限
func (s *PermissionService) GetByID(ctx context.Context, id uint) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.WithContext(ctx).Preload("DefaultPolicy").First(&permission, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("权限不存在")
	}
	return &permission, err
}

// GetByLandlordWithPage 分页获取网络主体下的权限
func (s *PermissionService) GetByLandlordWithPage(ctx context.Context, landlordID uint, resource string, page, pageSize int) ([]*models.Permission, int64, error) {
	var permissions []*models.Permission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Permission{}).Where("landlord_id = ?", landlordID)
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("DefaultPolicy").Offset(offset).Limit(pageSize).Find(&permissions).Error
	return permissions, total, err
}

// Update 更新权限的名称、描述和默认策略
//
// 默认策略变化会影响所有继承它的角色，相关角色缓存同步失效。
func (s *PermissionService) Update(ctx context.Context, id uint, name, description string, defaultPolicyID *uint) (*models.Permission, error) {
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 100 {
		return nil, apperrors.NewValidation("权限名称长度必须在2-100个字符之间")
	}

	var permission models.Permission
	if err := s.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("权限不存在")
		}
		return nil, err
	}

	if defaultPolicyID != nil {
		if err := s.validateDefaultPolicy(ctx, *defaultPolicyID, permission.LandlordID); err != nil {
			return nil, err
		}
	}

	permission.Name = name
	permission.Description = description
	permission.DefaultPolicyID = defaultPolicyID
	if err := s.db.WithContext(ctx).Save(&permission).Error; err != nil {
		return nil, err
	}

	roleIDs, err := s.rolesReferencingPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateRoles(ctx, roleIDs); err != nil {
		return nil, err
	}
	return &permission, nil
}

// Delete 删除权限，已被角色挂接时拒绝
func (s *PermissionService) Delete(ctx context.Context, id uint) error {
	var permission models.Permission
	if err := s.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("权限不存在")
		}
		return err
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.RolePermission{}).Where("permission_id = ?", id).Count(&count)
	if count > 0 {
		return apperrors.NewConflict("无法删除权限：存在角色挂接")
	}

	return s.db.WithContext(ctx).Delete(&permission).Error
}

// rolesReferencingPermission 挂接了该权限的角色ID列表
func (s *PermissionService) rolesReferencingPermission(ctx context.Context, permissionID uint) ([]uint, error) {
	var roleIDs []uint
	err := s.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("permission_id = ?", permissionID).
		Pluck("role_id", &roleIDs).Error
	return roleIDs, err
}

func (s *PermissionService) validateDefaultPolicy(ctx context.Context, policyID, landlordID uint) error {
	var policy models.Policy
	if err := s.db.WithContext(ctx).First(&policy, policyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("默认策略不存在")
		}
		return err
	}
	if policy.LandlordID != landlordID {
		return apperrors.NewValidation("默认策略和权限不属于同一网络主体")
	}
	return nil
}
