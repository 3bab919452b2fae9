package services

import (
	"context"
	"errors"
	"time"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"
	"authhub/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 邀请默认有效期
const invitationTTL = 7 * 24 * time.Hour

// InvitationService 租户邀请管理
type InvitationService struct {
	db     *gorm.DB
	grants *GrantService
}

func NewInvitationService(db *gorm.DB) *InvitationService {
	return &InvitationService{
		db:     db,
		grants: NewGrantService(db),
	}
}

// Create 创建租户邀请
func (s *InvitationService) Create(ctx context.Context, tenantID, inviterID, roleID uint, email string) (*models.TenantInvitation, error) {
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

	// 同租户同邮箱只允许一个待处理邀请
	var count int64
	s.db.WithContext(ctx).Model(&models.TenantInvitation{}).
		Where("tenant_id = ? AND invitee_email = ? AND status = ?", tenantID, email, models.InvitationStatusPending).
		Count(&count)
	if count > 0 {
		return nil, apperrors.NewConflict("该邮箱已有待处理的邀请")
	}

	invitation := &models.TenantInvitation{
		TenantID:     tenantID,
		InviterID:    inviterID,
		InviteeEmail: email,
		RoleID:       roleID,
		Status:       models.InvitationStatusPending,
		Token:        uuid.NewString(),
		ExpiredAt:    time.Now().Add(invitationTTL),
	}
	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, err
	}
	return invitation, nil
}

// Accept 接受邀请，创建对应的授权记录
func (s *InvitationService) Accept(ctx context.Context, token string, userID uint) (*models.UserTenantRole, error) {
	var invitation models.TenantInvitation
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("邀请不存在")
	}
	if err != nil {
		return nil, err
	}

	if !invitation.IsValid() {
		return nil, apperrors.NewValidation("邀请已失效")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("用户不存在")
		}
		return nil, err
	}
	if user.Email != invitation.InviteeEmail {
		return nil, apperrors.NewValidation("邀请不属于该用户")
	}

	grant, err := s.grants.Grant(ctx, userID, invitation.TenantID, invitation.RoleID, &invitation.InviterID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invitation.Status = models.InvitationStatusAccepted
	invitation.AcceptedAt = &now
	if err := s.db.WithContext(ctx).Save(&invitation).Error; err != nil {
		return nil, err
	}
	return grant, nil
}

// Cancel 取消待处理的邀请
func (s *InvitationService) Cancel(ctx context.Context, id uint) error {
	var invitation models.TenantInvitation
	if err := s.db.WithContext(ctx).First(&invitation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFound("邀请不存在")
		}
		return err
	}
	if invitation.Status != models.InvitationStatusPending {
		return apperrors.NewValidation("只能取消待处理的邀请")
	}
	return s.db.WithContext(ctx).Delete(&invitation).Error
}

// GetByTenant 租户的邀请列表
func (s *InvitationService) GetByTenant(ctx context.Context, tenantID uint) ([]models.TenantInvitation, error) {
	var invitations []models.TenantInvitation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Preload("Role").
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}

// CleanupExpired 将过期的待处理邀请标记为expired
func (s *InvitationService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TenantInvitation{}).
		Where("status = ? AND expired_at < ?", models.InvitationStatusPending, time.Now()).
		Update("status", models.InvitationStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.GetLogger().Infof("清理过期邀请 %d 条", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
