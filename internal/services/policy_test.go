package services

import (
	"context"
	"testing"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyCreate(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")

	policy, err := service.Create(ctx, landlord.ID, nil, "own_dept", "本部门", "",
		models.PolicyEffectAllow, []string{"update"}, []string{"members"},
		map[string]interface{}{"department": "fitness"})
	require.NoError(t, err)
	assert.Equal(t, "own_dept", policy.Code)
	assert.Nil(t, policy.TenantID)
	assert.Equal(t, []string{"update"}, []string(policy.Actions))
}

func TestPolicyCreateValidation(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")

	// 非法effect
	_, err := service.Create(ctx, landlord.ID, nil, "p1", "p1", "",
		"MAYBE", []string{"read"}, []string{"members"}, nil)
	assert.True(t, apperrors.IsValidation(err))

	// actions为空
	_, err = service.Create(ctx, landlord.ID, nil, "p2", "p2", "",
		models.PolicyEffectAllow, nil, []string{"members"}, nil)
	assert.True(t, apperrors.IsValidation(err))

	// resources为空
	_, err = service.Create(ctx, landlord.ID, nil, "p3", "p3", "",
		models.PolicyEffectAllow, []string{"read"}, nil, nil)
	assert.True(t, apperrors.IsValidation(err))

	// 网络主体不存在
	_, err = service.Create(ctx, 999, nil, "p4", "p4", "",
		models.PolicyEffectAllow, []string{"read"}, []string{"members"}, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestPolicyCreateDuplicateCode(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	other := mustCreateLandlord(t, db, "globex")

	_, err := service.Create(ctx, landlord.ID, nil, "dup", "dup", "",
		models.PolicyEffectAllow, []string{"read"}, []string{"members"}, nil)
	require.NoError(t, err)

	// 同一网络主体内代码重复：冲突
	_, err = service.Create(ctx, landlord.ID, nil, "dup", "dup2", "",
		models.PolicyEffectAllow, []string{"read"}, []string{"members"}, nil)
	assert.True(t, apperrors.IsConflict(err))

	// 不同网络主体可以复用代码
	_, err = service.Create(ctx, other.ID, nil, "dup", "dup", "",
		models.PolicyEffectAllow, []string{"read"}, []string{"members"}, nil)
	assert.NoError(t, err)
}

func TestPolicyCreateTenantScoped(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlordA := mustCreateLandlord(t, db, "acme")
	landlordB := mustCreateLandlord(t, db, "globex")
	tenantB := mustCreateTenant(t, db, landlordB.ID, "hq")

	// 租户必须属于策略所在的网络主体
	_, err := service.Create(ctx, landlordA.ID, &tenantB.ID, "scoped", "scoped", "",
		models.PolicyEffectDeny, []string{"delete"}, []string{"members"}, nil)
	assert.True(t, apperrors.IsValidation(err))

	tenantA := mustCreateTenant(t, db, landlordA.ID, "hq")
	policy, err := service.Create(ctx, landlordA.ID, &tenantA.ID, "scoped", "scoped", "",
		models.PolicyEffectDeny, []string{"delete"}, []string{"members"}, nil)
	require.NoError(t, err)
	require.NotNil(t, policy.TenantID)
	assert.Equal(t, tenantA.ID, *policy.TenantID)
}

func TestPolicyUpdateNotFound(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)

	_, err := service.Update(context.Background(), 999, "n", "", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPolicyDeleteRejectedWhenReferenced(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	policy := mustCreatePolicy(t, db, landlord.ID, "ref", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	perm := mustCreatePermission(t, db, landlord.ID, "read", "members", nil)

	rp := NewRolePermissionService(db, nil)
	_, err := rp.Attach(ctx, role.ID, perm.ID, &policy.ID, false)
	require.NoError(t, err)

	// 被角色权限关联引用：拒绝删除
	err = service.Delete(ctx, policy.ID)
	assert.True(t, apperrors.IsConflict(err))

	// 解除引用后可删
	_, err = rp.UpdatePolicy(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)
	require.NoError(t, service.Delete(ctx, policy.ID))
}

func TestPolicyDeleteRejectedWhenDefaultOfPermission(t *testing.T) {
	db := newTestDB(t)
	service := NewPolicyService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	policy := mustCreatePolicy(t, db, landlord.ID, "def", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	mustCreatePermission(t, db, landlord.ID, "read", "members", &policy.ID)

	err := service.Delete(ctx, policy.ID)
	assert.True(t, apperrors.IsConflict(err))
}
