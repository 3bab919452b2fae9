package services

import (
	"context"
	"errors"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TenantService 租户管理
type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// ========== 基础CRUD方法 ==========

// Create 在网络主体下创建租户
func (s *TenantService) Create(ctx context.Context, landlordID uint, name, code string, config datatypes.JSON) (*models.Tenant, error) {
	if !validateName(name) {
		return nil, apperrors.NewValidation("租户名称长度必须在2-100个字符之间")
	}
	if !validateCode(code) {
		return nil, apperrors.NewValidation("租户代码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}

	var landlordCount int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).Where("id = ?", landlordID).Count(&landlordCount)
	if landlordCount == 0 {
		return nil, apperrors.NewValidation("网络主体不存在")
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("landlord_id = ? AND code = ?", landlordID, code).Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("租户代码已存在")
	}

	tenant := &models.Tenant{
		LandlordID: landlordID,
		Name:       name,
		Code:       code,
		Config:     config,
		Status:     models.TenantStatusActive,
	}
	err := s.db.WithContext(ctx).Create(tenant).Error
	return tenant, err
}

// GetByID 根据ID获取租户
func (s *TenantService) GetByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).Preload("Landlord").First(&tenant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("租户不存在")
	}
	return &tenant, err
}

// GetByLandlordWithPage 分页获取网络主体下的租户
func (s *TenantService) GetByLandlordWithPage(ctx context.Context, landlordID uint, status string, page, pageSize int) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Tenant{}).Where("landlord_id = ?", landlordID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&tenants).Error
	return tenants, total, err
}

// Update 更新租户
func (s *TenantService) Update(ctx context.Context, id uint, name string, config datatypes.JSON) (*models.Tenant, error) {
	if !validateName(name) {
		return nil, apperrors.NewValidation("租户名称长度必须在2-100个字符之间")
	}

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("租户不存在")
		}
		return nil, err
	}

	tenant.Name = name
	tenant.Config = config
	err := s.db.WithContext(ctx).Save(&tenant).Error
	return &tenant, err
}

// SetStatus 启用/停用租户
func (s *TenantService) SetStatus(ctx context.Context, id uint, status string) (*models.Tenant, error) {
	if status != models.TenantStatusActive && status != models.TenantStatusInactive {
		return nil, apperrors.NewValidation("状态只能是active或inactive")
	}

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("租户不存在")
		}
		return nil, err
	}

	tenant.Status = status
	err := s.db.WithContext(ctx).Save(&tenant).Error
	return &tenant, err
}

// Delete 删除租户，存在成员授权时拒绝
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("租户不存在")
		}
		return err
	}

	var grantCount int64
	s.db.WithContext(ctx).Model(&models.UserTenantRole{}).Where("tenant_id = ?", id).Count(&grantCount)
	if grantCount > 0 {
		return apperrors.NewConflict("无法删除租户：存在成员授权记录")
	}

	return s.db.WithContext(ctx).Delete(&tenant).Error
}

// GetMembers 获取租户成员授权列表
func (s *TenantService) GetMembers(ctx context.Context, tenantID uint, page, pageSize int) ([]models.UserTenantRole, int64, error) {
	var grants []models.UserTenantRole
	var total int64

	query := s.db.WithContext(ctx).Model(&models.UserTenantRole{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("User").Preload("Role").
		Offset(offset).Limit(pageSize).Find(&grants).Error
	return grants, total, err
}

// validateCode 代码校验：长度2-50，只允许字母、数字和下划线
func validateCode(code string) bool {
	if len(code) < 2 || len(code) > 50 {
		return false
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}
