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

// PolicyService 策略管理
type PolicyService struct {
	db    *gorm.DB
	cache *PermissionCache
}

func NewPolicyService(db *gorm.DB, cache *PermissionCache) *PolicyService {
	return &PolicyService{db: db, cache: cache}
}

// ========== 基础CRUD方法 ==========

// Create 在网络主体下创建策略
func (s *PolicyService) Create(ctx context.Context, landlordID uint, tenantID *uint, code, name, description, effect string, actions, resources []string, conditions map[string]interface{}) (*models.Policy, error) {
	if err := s.validatePolicyParams(code, name, effect, actions, resources); err != nil {
		return nil, err
	}

	var landlordCount int64
	s.db.WithContext(ctx).Model(&models.Landlord{}).Where("id = ?", landlordID).Count(&landlordCount)
	if landlordCount == 0 {
		return nil, apperrors.NewValidation("网络主体不存在")
	}

	if tenantID != nil {
		var tenant models.Tenant
		if err := s.db.WithContext(ctx).First(&tenant, *tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewNotFound("租户不存在")
			}
			return nil, err
		}
		if tenant.LandlordID != landlordID {
			return nil, apperrors.NewValidation("租户和策略不属于同一网络主体")
		}
	}

	var count int64
	s.db.WithContext(ctx).Model(&models.Policy{}).
		Where("landlord_id = ? AND code = ?", landlordID, code).Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("策略代码已存在")
	}

	policy := &models.Policy{
		LandlordID:  landlordID,
		TenantID:    tenantID,
		Code:        code,
		Name:        name,
		Description: description,
		Effect:      effect,
		Actions:     datatypes.NewJSONSlice(actions),
		Resources:   datatypes.NewJSONSlice(resources),
		Conditions:  conditions,
	}
	err := s.db.WithContext(ctx).Create(policy).Error
	return policy, err
}

// GetByID 根据ID获取策略
func (s *PolicyService) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	var policy models.Policy
	err := s.db.WithContext(ctx).First(&policy, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("策略不存在")
	}
	return &policy, err
}

// GetByLandlordWithPage 分页获取网络主体下的策略
func (s *PolicyService) GetByLandlordWithPage(ctx context.Context, landlordID uint, effect string, page, pageSize int) ([]*models.Policy, int64, error) {
	var policies []*models.Policy
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Policy{}).Where("landlord_id = ?", landlordID)
	if effect != "" {
		query = query.Where("effect = ?", effect)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&policies).Error
	return policies, total, err
}

// Update 更新策略
//
// 策略内容变化会影响所有引用它的角色（override或默认策略继承），
// 相关角色缓存在同一调用内同步失效。
func (s *PolicyService) Update(ctx context.Context, id uint, name, description, effect string, actions, resources []string, conditions map[string]interface{}) (*models.Policy, error) {
	var policy models.Policy
	if err := s.db.WithContext(ctx).First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("策略不存在")
		}
		return nil, err
	}

	if err := s.validatePolicyParams(policy.Code, name, effect, actions, resources); err != nil {
		return nil, err
	}

	policy.Name = name
	policy.Description = description
	policy.Effect = effect
	policy.Actions = datatypes.NewJSONSlice(actions)
	policy.Resources = datatypes.NewJSONSlice(resources)
	policy.Conditions = conditions
	if err := s.db.WithContext(ctx).Save(&policy).Error; err != nil {
		return nil, err
	}

	roleIDs, err := s.rolesReferencingPolicy(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateRoles(ctx, roleIDs); err != nil {
		return nil, err
	}
	return &policy, nil
}

// Delete 删除策略，被权限或角色关联引用时拒绝
func (s *PolicyService) Delete(ctx context.Context, id uint) error {
	var policy models.Policy
	if err := s.db.WithContext(ctx).First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("策略不存在")
		}
		return err
	}

	var permCount int64
	s.db.WithContext(ctx).Model(&models.Permission{}).Where("default_policy_id = ?", id).Count(&permCount)
	if permCount > 0 {
		return apperrors.NewConflict("无法删除策略：被权限引用为默认策略")
	}

	var assocCount int64
	s.db.WithContext(ctx).Model(&models.RolePermission{}).Where("policy_id = ?", id).Count(&assocCount)
	if assocCount > 0 {
		return apperrors.NewConflict("无法删除策略：被角色权限关联引用")
	}

	return s.db.WithContext(ctx).Delete(&policy).Error
}

// rolesReferencingPolicy 引用该策略的角色ID列表：
// override直接引用，或经权限默认策略继承引用
func (s *PolicyService) rolesReferencingPolicy(ctx context.Context, policyID uint) ([]uint, error) {
	var direct []uint
	err := s.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("policy_id = ?", policyID).
		Pluck("role_id", &direct).Error
	if err != nil {
		return nil, err
	}

	var inherited []uint
	err = s.db.WithContext(ctx).Model(&models.RolePermission{}).
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.inherit_policy = ? AND permissions.default_policy_id = ?", true, policyID).
		Pluck("role_permissions.role_id", &inherited).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	var roleIDs []uint
	for _, id := range append(direct, inherited...) {
		if !seen[id] {
			seen[id] = true
			roleIDs = append(roleIDs, id)
		}
	}
	return roleIDs, nil
}

// validatePolicyParams 策略参数校验
//
// effect只能是ALLOW/DENY；actions/resources非空策略才有意义。
func (s *PolicyService) validatePolicyParams(code, name, effect string, actions, resources []string) error {
	if !validateCode(code) {
		return apperrors.NewValidation("策略代码长度必须在2-50个字符之间，且只能包含字母、数字和下划线")
	}
	if runeCount := utf8.RuneCountInString(name); runeCount < 2 || runeCount > 100 {
		return apperrors.NewValidation("策略名称长度必须在2-100个字符之间")
	}
	if !models.ValidEffect(effect) {
		return apperrors.NewValidation("策略效果只能是ALLOW或DENY")
	}
	if len(actions) == 0 {
		return apperrors.NewValidation("策略必须声明至少一个操作")
	}
	if len(resources) == 0 {
		return apperrors.NewValidation("策略必须声明至少一个资源")
	}
	return nil
}
