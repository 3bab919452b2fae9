package services

import (
	"context"
	"errors"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/gorm"
)

// GrantService 用户-租户-角色授权管理
//
// UserTenantRole三元组是用户获得租户内身份的唯一途径。
type GrantService struct {
	db *gorm.DB
}

func NewGrantService(db *gorm.DB) *GrantService {
	return &GrantService{db: db}
}

// Grant 在租户内授予用户角色
//
// 角色必须属于租户所在的网络主体；同一三元组重复授予返回冲突。
func (s *GrantService) Grant(ctx context.Context, userID, tenantID, roleID uint, grantedBy *uint) (*models.UserTenantRole, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("用户不存在")
		}
		return nil, err
	}

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("租户不存在")
		}
		return nil, err
	}

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("角色不存在")
		}
		return nil, err
	}

	if role.LandlordID != tenant.LandlordID {
		return nil, apperrors.NewValidation("角色和租户不属于同一网络主体")
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.UserTenantRole{}).
		Where("user_id = ? AND tenant_id = ? AND role_id = ?", userID, tenantID, roleID).
		Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("该授权记录已存在")
	}

	grant := &models.UserTenantRole{
		UserID:    userID,
		TenantID:  tenantID,
		RoleID:    roleID,
		GrantedBy: grantedBy,
	}
	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		return nil, err
	}
	return grant, nil
}

// Revoke 撤销授权，幂等：记录不存在时返回false而不是错误
func (s *GrantService) Revoke(ctx context.Context, userID, tenantID, roleID uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND tenant_id = ? AND role_id = ?", userID, tenantID, roleID).
		Delete(&models.UserTenantRole{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByUser 用户的全部授权记录
func (s *GrantService) GetByUser(ctx context.Context, userID uint) ([]models.UserTenantRole, error) {
	var grants []models.UserTenantRole
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Tenant").
		Preload("Role").
		Find(&grants).Error
	return grants, err
}

// GetByTenant 租户内的全部授权记录
func (s *GrantService) GetByTenant(ctx context.Context, tenantID uint) ([]models.UserTenantRole, error) {
	var grants []models.UserTenantRole
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("User").
		Preload("Role").
		Find(&grants).Error
	return grants, err
}
