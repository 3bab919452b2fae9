package services

import (
	"context"
	"testing"

	"authhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*PermissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPermissionCache(client, "authhub_test"), mr
}

func TestDecideEndToEnd(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	service := NewAccessService(db, cache)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "instructor")
	mustGrant(t, db, user.ID, tenant.ID, role.ID)

	policy := mustCreatePolicy(t, db, landlord.ID, "own_department", models.PolicyEffectAllow,
		[]string{"update"}, []string{"members"},
		map[string]interface{}{"department": "fitness"})
	perm := mustCreatePermission(t, db, landlord.ID, "update", "members", &policy.ID)

	rp := NewRolePermissionService(db, cache)
	_, err := rp.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	// 条件命中：放行
	decision, err := service.Decide(ctx, user.ID, tenant.ID, "update", "members",
		map[string]interface{}{"department": "fitness"})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// 其他部门：拒绝
	decision, err = service.Decide(ctx, user.ID, tenant.ID, "update", "members",
		map[string]interface{}{"department": "yoga"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// 未授权操作：默认拒绝
	decision, err = service.Decide(ctx, user.ID, tenant.ID, "delete", "members",
		map[string]interface{}{"department": "fitness"})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestDecideCacheInvalidationOnDetach(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	service := NewAccessService(db, cache)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	mustGrant(t, db, user.ID, tenant.ID, role.ID)

	policy := mustCreatePolicy(t, db, landlord.ID, "allow_read", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	perm := mustCreatePermission(t, db, landlord.ID, "read", "members", &policy.ID)

	rp := NewRolePermissionService(db, cache)
	_, err := rp.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	// 第一次判定填充缓存
	decision, err := service.Decide(ctx, user.ID, tenant.ID, "read", "members", nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// 摘除权限后缓存同步失效，判定立即变为拒绝
	detached, err := rp.Detach(ctx, role.ID, perm.ID)
	require.NoError(t, err)
	require.True(t, detached)

	decision, err = service.Decide(ctx, user.ID, tenant.ID, "read", "members", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestDecideCacheInvalidationOnPolicyUpdate(t *testing.T) {
	db := newTestDB(t)
	cache, _ := newTestCache(t)
	service := NewAccessService(db, cache)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	mustGrant(t, db, user.ID, tenant.ID, role.ID)

	policy := mustCreatePolicy(t, db, landlord.ID, "gate", models.PolicyEffectAllow,
		[]string{"read"}, []string{"members"}, nil)
	perm := mustCreatePermission(t, db, landlord.ID, "read", "members", &policy.ID)

	rp := NewRolePermissionService(db, cache)
	_, err := rp.Attach(ctx, role.ID, perm.ID, nil, true)
	require.NoError(t, err)

	decision, err := service.Decide(ctx, user.ID, tenant.ID, "read", "members", nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// 策略翻转为DENY，继承引用的角色缓存同步失效
	policyService := NewPolicyService(db, cache)
	_, err = policyService.Update(ctx, policy.ID, policy.Name, "", models.PolicyEffectDeny,
		[]string{"read"}, []string{"members"}, nil)
	require.NoError(t, err)

	decision, err = service.Decide(ctx, user.ID, tenant.ID, "read", "members", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestDecidePlatformAdminEndToEnd(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "root")
	role := mustCreateRole(t, db, landlord.ID, models.RolePlatformAdmin)
	mustGrant(t, db, user.ID, tenant.ID, role.ID)

	decision, err := service.Decide(ctx, user.ID, tenant.ID, "delete", "anything", nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestHasTenantAccess(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenantA := mustCreateTenant(t, db, landlord.ID, "a")
	tenantB := mustCreateTenant(t, db, landlord.ID, "b")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "staff")
	mustGrant(t, db, user.ID, tenantA.ID, role.ID)

	ok, err := service.HasTenantAccess(ctx, user.ID, tenantA.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.HasTenantAccess(ctx, user.ID, tenantB.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasAnyAndAllRoles(t *testing.T) {
	db := newTestDB(t)
	service := NewAccessService(db, nil)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	staff := mustCreateRole(t, db, landlord.ID, "staff")
	auditor := mustCreateRole(t, db, landlord.ID, "auditor")
	mustGrant(t, db, user.ID, tenant.ID, staff.ID)

	ok, err := service.HasAnyRole(ctx, user.ID, []string{"staff", "auditor"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.HasAnyRole(ctx, user.ID, []string{"auditor"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = service.HasAllRoles(ctx, user.ID, []string{"staff", "auditor"})
	require.NoError(t, err)
	assert.False(t, ok)

	mustGrant(t, db, user.ID, tenant.ID, auditor.ID)
	ok, err = service.HasAllRoles(ctx, user.ID, []string{"staff", "auditor"})
	require.NoError(t, err)
	assert.True(t, ok)
}
