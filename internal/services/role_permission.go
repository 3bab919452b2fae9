package services

import (
	"context"
	"errors"

	"authhub/internal/authz"
	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/gorm"
)

// RolePermissionService 角色权限关联管理：挂接、更新策略、摘除、解析生效集合
type RolePermissionService struct {
	db    *gorm.DB
	cache *PermissionCache
}

func NewRolePermissionService(db *gorm.DB, cache *PermissionCache) *RolePermissionService {
	return &RolePermissionService{db: db, cache: cache}
}

// ResolveEffectivePermissions 计算角色的生效（权限, 策略）集合
//
// 每条关联的生效策略：override策略优先；否则inherit为真时取权限的
// 默认策略；两者皆无则为nil（下游按隐式DENY处理）。
// 关联指向已删除权限属于数据不一致，按故障上抛而不是悄悄拒绝。
func (s *RolePermissionService) ResolveEffectivePermissions(ctx context.Context, roleID uint) ([]authz.EffectivePermission, error) {
	if perms, ok := s.cache.GetRolePermissions(ctx, roleID); ok {
		return perms, nil
	}

	var associations []models.RolePermission
	err := s.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Preload("Permission").
		Preload("Permission.DefaultPolicy").
		Preload("Policy").
		Find(&associations).Error
	if err != nil {
		return nil, err
	}

	result := make([]authz.EffectivePermission, 0, len(associations))
	for _, assoc := range associations {
		if assoc.Permission.ID == 0 {
			return nil, apperrors.NewInternal("角色权限关联指向不存在的权限")
		}

		ep := authz.EffectivePermission{Permission: assoc.Permission}
		switch {
		case assoc.Policy != nil:
			ep.Policy = assoc.Policy
		case assoc.InheritPolicy && assoc.Permission.DefaultPolicy != nil:
			ep.Policy = assoc.Permission.DefaultPolicy
		}
		result = append(result, ep)
	}

	s.cache.SetRolePermissions(ctx, roleID, result)
	return result, nil
}

// Attach 为角色挂接权限
//
// 角色和权限必须属于同一网络主体；关联已存在时返回冲突（应走更新路径）。
func (s *RolePermissionService) Attach(ctx context.Context, roleID, permissionID uint, policyID *uint, inherit bool) (*models.RolePermission, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("角色不存在")
		}
		return nil, err
	}

	var permission models.Permission
	if err := s.db.WithContext(ctx).First(&permission, permissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("权限不存在")
		}
		return nil, err
	}

	if role.LandlordID != permission.LandlordID {
		return nil, apperrors.NewValidation("角色和权限不属于同一网络主体")
	}

	if policyID != nil {
		if err := s.validatePolicy(ctx, *policyID, role.LandlordID); err != nil {
			return nil, err
		}
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("角色已挂接该权限")
	}

	association := &models.RolePermission{
		RoleID:        roleID,
		PermissionID:  permissionID,
		PolicyID:      policyID,
		InheritPolicy: inherit,
	}
	if err := s.db.WithContext(ctx).Create(association).Error; err != nil {
		// 并发挂接时唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewConflict("角色已挂接该权限")
		}
		return nil, err
	}

	if err := s.cache.InvalidateRole(ctx, roleID); err != nil {
		return nil, err
	}
	return association, nil
}

// UpdatePolicy 更新关联的override策略和继承标记
func (s *RolePermissionService) UpdatePolicy(ctx context.Context, roleID, permissionID uint, policyID *uint, inherit bool) (*models.RolePermission, error) {
	var association models.RolePermission
	err := s.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		First(&association).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("角色权限关联不存在")
		}
		return nil, err
	}

	if policyID != nil {
		var role models.Role
		if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
			return nil, err
		}
		if err := s.validatePolicy(ctx, *policyID, role.LandlordID); err != nil {
			return nil, err
		}
	}

	association.PolicyID = policyID
	association.InheritPolicy = inherit
	if err := s.db.WithContext(ctx).Save(&association).Error; err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateRole(ctx, roleID); err != nil {
		return nil, err
	}
	return &association, nil
}

// Detach 摘除角色权限，幂等：关联不存在时返回false而不是错误
func (s *RolePermissionService) Detach(ctx context.Context, roleID, permissionID uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{})
	if result.Error != nil {
		return false, result.Error
	}

	if err := s.cache.InvalidateRole(ctx, roleID); err != nil {
		return false, err
	}
	return result.RowsAffected > 0, nil
}

// validatePolicy 策略必须存在且与角色同属一个网络主体
func (s *RolePermissionService) validatePolicy(ctx context.Context, policyID, landlordID uint) error {
	var policy models.Policy
	if err := s.db.WithContext(ctx).First(&policy, policyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("策略不存在")
		}
		return err
	}
	if policy.LandlordID != landlordID {
		return apperrors.NewValidation("策略和角色不属于同一网络主体")
	}
	return nil
}
