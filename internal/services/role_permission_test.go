package services

import (
	"context"
	"testing"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAttach(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)

	assoc, err := service.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, role.ID, assoc.RoleID)
	assert.Equal(t, perm.ID, assoc.PermissionID)
	assert.Nil(t, assoc.PolicyID)
	assert.True(t, assoc.InheritPolicy)
}

func TestAttachNotFound(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)

	_, err := service.Attach(ctx, 999, perm.ID, nil, true)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = service.Attach(ctx, role.ID, 999, nil, true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAttachLandlordMismatch(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlordA := mustCreateLandlord(t, db, "acme")
	landlordB := mustCreateLandlord(t, db, "globex")
	role := mustCreateRole(t, db, landlordA.ID, "staff")
	perm := mustCreatePermission(t, db, landlordB.ID, "update", "members", nil)

	_, err := service.Attach(ctx, role.ID, perm.ID, nil, true)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAttachDuplicateConflict(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)

	_, err := service.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	// 重复挂接必须报冲突而不是悄悄更新
	_, err = service.Attach(ctx, role.ID, perm.ID, nil, false)
	assert.True(t, apperrors.IsConflict(err))

	var count int64
	db.Model(&models.RolePermission{}).Where("role_id = ?", role.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAttachInheritFalsePersisted(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	defaultPolicy := mustCreatePolicy(t, db, landlord.ID, "default_allow", models.PolicyEffectAllow,
		[]string{"delete"}, []string{"members"}, nil)
	perm := mustCreatePermission(t, db, landlord.ID, "delete", "members", &defaultPolicy.ID)

	_, err := service.Attach(ctx, role.ID, perm.ID, nil, false)
	require.NoError(t, err)

	// inherit=false必须落库为false，否则关联会错误继承ALLOW默认策略
	var stored models.RolePermission
	require.NoError(t, db.Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).First(&stored).Error)
	assert.False(t, stored.InheritPolicy)

	effective, err := service.ResolveEffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, effective, 1)
	assert.Nil(t, effective[0].Policy)
}

func TestAttachConcurrentDuplicateConflict(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)

	// 在重复检查通过之后、写入之前插入同一条关联，模拟并发挂接：
	// 唯一索引触发时必须映射为冲突而不是裸数据库错误
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("attach_race", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.RolePermission); !ok {
			return
		}
		raced = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Create(&models.RolePermission{
			RoleID:       role.ID,
			PermissionID: perm.ID,
		}).Error)
	})
	require.NoError(t, err)
	defer db.Callback().Create().Remove("attach_race")

	_, err = service.Attach(ctx, role.ID, perm.ID, nil, true)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAttachPolicyLandlordMismatch(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlordA := mustCreateLandlord(t, db, "acme")
	landlordB := mustCreateLandlord(t, db, "globex")
	role := mustCreateRole(t, db, landlordA.ID, "staff")
	perm := mustCreatePermission(t, db, landlordA.ID, "update", "members", nil)
	foreignPolicy := mustCreatePolicy(t, db, landlordB.ID, "foreign", models.PolicyEffectAllow,
		[]string{"update"}, []string{"members"}, nil)

	_, err := service.Attach(ctx, role.ID, perm.ID, &foreignPolicy.ID, false)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdatePolicyNotFound(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)

	_, err := service.UpdatePolicy(context.Background(), 1, 2, nil, true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdatePolicy(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)
	policy := mustCreatePolicy(t, db, landlord.ID, "override", models.PolicyEffectAllow,
		[]string{"update"}, []string{"members"}, nil)

	_, err := service.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	assoc, err := service.UpdatePolicy(ctx, role.ID, perm.ID, &policy.ID, false)
	require.NoError(t, err)
	require.NotNil(t, assoc.PolicyID)
	assert.Equal(t, policy.ID, *assoc.PolicyID)
	assert.False(t, assoc.InheritPolicy)
}

func TestDetachIdempotent(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", nil)

	_, err := service.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	// 第一次摘除真实生效
	detached, err := service.Detach(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.True(t, detached)

	// 第二次摘除幂等：不报错，返回false
	detached, err = service.Detach(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	assert.False(t, detached)
}

func TestResolveEffectivePermissions(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")

	defaultPolicy := mustCreatePolicy(t, db, landlord.ID, "default_read", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	overridePolicy := mustCreatePolicy(t, db, landlord.ID, "override_update", models.PolicyEffectAllow,
		[]string{"update"}, []string{"members"}, nil)

	// override优先于默认策略
	permOverride := mustCreatePermission(t, db, landlord.ID, "update", "members", &defaultPolicy.ID)
	_, err := service.Attach(ctx, role.ID, permOverride.ID, &overridePolicy.ID, true)
	require.NoError(t, err)

	// 继承默认策略
	permInherit := mustCreatePermission(t, db, landlord.ID, "read", "members", &defaultPolicy.ID)
	_, err = service.Attach(ctx, role.ID, permInherit.ID, nil, true)
	require.NoError(t, err)

	// 不继承且无override：生效策略为nil
	permNone := mustCreatePermission(t, db, landlord.ID, "delete", "members", &defaultPolicy.ID)
	_, err = service.Attach(ctx, role.ID, permNone.ID, nil, false)
	require.NoError(t, err)

	effective, err := service.ResolveEffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, effective, 3)

	byAction := make(map[string]*models.Policy)
	for _, ep := range effective {
		byAction[ep.Permission.Action] = ep.Policy
	}

	require.NotNil(t, byAction["update"])
	assert.Equal(t, "override_update", byAction["update"].Code)

	require.NotNil(t, byAction["read"])
	assert.Equal(t, "default_read", byAction["read"].Code)

	assert.Nil(t, byAction["delete"])
}

func TestResolveEffectivePermissionsEmptyRole(t *testing.T) {
	db := newTestDB(t)
	service := NewRolePermissionService(db, nil)

	effective, err := service.ResolveEffectivePermissions(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, effective)
}
