package services

import (
	"context"
	"testing"

	apperrors "authhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrant(t *testing.T) {
	db := newTestDB(t)
	service := NewGrantService(db)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "staff")

	grant, err := service.Grant(ctx, user.ID, tenant.ID, role.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, grant.UserID)
	assert.Equal(t, tenant.ID, grant.TenantID)
	assert.Equal(t, role.ID, grant.RoleID)

	// 相同三元组重复授权：冲突
	_, err = service.Grant(ctx, user.ID, tenant.ID, role.ID, nil)
	assert.True(t, apperrors.IsConflict(err))
}

func TestGrantRoleTenantLandlordMismatch(t *testing.T) {
	db := newTestDB(t)
	service := NewGrantService(db)
	ctx := context.Background()

	landlordA := mustCreateLandlord(t, db, "acme")
	landlordB := mustCreateLandlord(t, db, "globex")
	tenant := mustCreateTenant(t, db, landlordA.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	foreignRole := mustCreateRole(t, db, landlordB.ID, "staff")

	// 角色和租户必须属于同一网络主体
	_, err := service.Grant(ctx, user.ID, tenant.ID, foreignRole.ID, nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRevokeIdempotent(t *testing.T) {
	db := newTestDB(t)
	service := NewGrantService(db)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenant := mustCreateTenant(t, db, landlord.ID, "hq")
	user := mustCreateUser(t, db, "alice")
	role := mustCreateRole(t, db, landlord.ID, "staff")

	_, err := service.Grant(ctx, user.ID, tenant.ID, role.ID, nil)
	require.NoError(t, err)

	revoked, err := service.Revoke(ctx, user.ID, tenant.ID, role.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = service.Revoke(ctx, user.ID, tenant.ID, role.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestGetByUserAndTenant(t *testing.T) {
	db := newTestDB(t)
	service := NewGrantService(db)
	ctx := context.Background()

	landlord := mustCreateLandlord(t, db, "acme")
	tenantA := mustCreateTenant(t, db, landlord.ID, "a")
	tenantB := mustCreateTenant(t, db, landlord.ID, "b")
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")
	role := mustCreateRole(t, db, landlord.ID, "staff")

	_, err := service.Grant(ctx, alice.ID, tenantA.ID, role.ID, nil)
	require.NoError(t, err)
	_, err = service.Grant(ctx, alice.ID, tenantB.ID, role.ID, nil)
	require.NoError(t, err)
	_, err = service.Grant(ctx, bob.ID, tenantA.ID, role.ID, nil)
	require.NoError(t, err)

	byUser, err := service.GetByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byTenant, err := service.GetByTenant(ctx, tenantA.ID)
	require.NoError(t, err)
	assert.Len(t, byTenant, 2)
}
