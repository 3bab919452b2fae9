package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LandlordService 网络主体管理
type LandlordService struct {
	db *gorm.DB
}

func NewLandlordService(db *gorm.DB) *LandlordService {
	return &LandlordService{db: db}
}

// SetupResult 初始化流程的产出
type SetupResult struct {
	Landlord      *models.Landlord `json:"landlord"`
	DefaultTenant *models.Tenant   `json:"default_tenant"`
	Roles         []models.Role    `json:"roles"`
}

// Setup 网络主体初始化流程
//
// 单事务内创建网络主体、默认租户和系统预定义角色，
// 任何一步失败整体回滚。
func (s *LandlordService) Setup(ctx context.Context, name string, config datatypes.JSON) (*SetupResult, error) {
	if !validateName(name) {
		return nil, apperrors.NewValidation("名称长度必须在2-100个字符之间")
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("网络主体名称已存在")
	}

	result := &SetupResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		landlord := &models.Landlord{
			Name:   name,
			Config: config,
			Status: models.LandlordStatusActive,
		}
		if err := tx.Create(landlord).Error; err != nil {
			return err
		}

		tenant := &models.Tenant{
			LandlordID: landlord.ID,
			Name:       "默认租户",
			Code:       "default",
			Status:     models.TenantStatusActive,
		}
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}

		roles := []models.Role{
			{LandlordID: landlord.ID, Code: models.RolePlatformAdmin, Name: "平台超级管理员", IsSystem: true, Status: models.RoleStatusActive},
			{LandlordID: landlord.ID, Code: models.RoleTenantAdmin, Name: "租户管理员", IsSystem: true, Status: models.RoleStatusActive},
			{LandlordID: landlord.ID, Code: models.RoleTenantUser, Name: "租户普通用户", IsSystem: true, Status: models.RoleStatusActive},
		}
		if err := tx.Create(&roles).Error; err != nil {
			return err
		}

		result.Landlord = landlord
		result.DefaultTenant = tenant
		result.Roles = roles
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID 根据ID获取网络主体
func (s *LandlordService) GetByID(ctx context.Context, id uint) (*models.Landlord, error) {
	var landlord models.Landlord
	err := s.db.WithContext(ctx).Preload("Tenants").First(&landlord, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("网络主体不存在")
	}
	return &landlord, err
}

// GetAllWithPage 分页获取网络主体列表
func (s *LandlordService) GetAllWithPage(ctx context.Context, page, pageSize int) ([]*models.Landlord, int64, error) {
	var landlords []*models.Landlord
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Landlord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&landlords).Error
	return landlords, total, err
}

// Update 更新网络主体
func (s *LandlordService) Update(ctx context.Context, id uint, name string, config datatypes.JSON, status string) (*models.Landlord, error) {
	if !validateName(name) {
		return nil, apperrors.NewValidation("名称长度必须在2-100个字符之间")
	}
	if status != models.LandlordStatusActive && status != models.LandlordStatusInactive {
		return nil, apperrors.NewValidation("状态只能是active或inactive")
	}

	var landlord models.Landlord
	if err := s.db.WithContext(ctx).First(&landlord, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("网络主体不存在")
		}
		return nil, err
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).
		Where("name = ? AND id != ?", name, id).Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("网络主体名称已存在")
	}

	landlord.Name = name
	landlord.Config = config
	landlord.Status = status
	err := s.db.WithContext(ctx).Save(&landlord).Error
	return &landlord, err
}

// Delete 删除网络主体
//
// 存在下属租户/角色/权限/策略时拒绝删除，而不是级联。
func (s *LandlordService) Delete(ctx context.Context, id uint) error {
	var landlord models.Landlord
	if err := s.db.WithContext(ctx).First(&landlord, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("网络主体不存在")
		}
		return err
	}

	dependents := map[string]interface{}{
		"存在下属租户": &models.Tenant{},
		"存在下属角色": &models.Role{},
		"存在下属权限": &models.Permission{},
		"存在下属策略": &models.Policy{},
	}
	for reason, model := range dependents {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Where("landlord_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.NewConflict("无法删除网络主体：" + reason)
		}
	}

	return s.db.WithContext(ctx).Delete(&landlord).Error
}

// validateName 名称长度校验（按unicode字符数）
func validateName(name string) bool {
	runeCount := utf8.RuneCountInString(name)
	return runeCount >= 2 && runeCount <= 100
}
