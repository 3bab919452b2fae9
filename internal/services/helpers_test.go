package services

import (
	"testing"

	"authhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Landlord{},
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Policy{},
		&models.RolePermission{},
		&models.UserTenantRole{},
		&models.TenantInvitation{},
	))
	return db
}

func mustCreateLandlord(t *testing.T, db *gorm.DB, name string) *models.Landlord {
	t.Helper()
	landlord := &models.Landlord{Name: name, Status: models.LandlordStatusActive}
	require.NoError(t, db.Create(landlord).Error)
	return landlord
}

func mustCreateTenant(t *testing.T, db *gorm.DB, landlordID uint, code string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{LandlordID: landlordID, Name: code, Code: code, Status: models.TenantStatusActive}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func mustCreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Secret@123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func mustCreateRole(t *testing.T, db *gorm.DB, landlordID uint, code string) *models.Role {
	t.Helper()
	role := &models.Role{LandlordID: landlordID, Code: code, Name: code, Status: models.RoleStatusActive}
	require.NoError(t, db.Create(role).Error)
	return role
}

func mustCreatePermission(t *testing.T, db *gorm.DB, landlordID uint, action, resource string, defaultPolicyID *uint) *models.Permission {
	t.Helper()
	perm := &models.Permission{
		LandlordID:      landlordID,
		Code:            resource + ":" + action,
		Name:            resource + ":" + action,
		Action:          action,
		Resource:        resource,
		DefaultPolicyID: defaultPolicyID,
	}
	require.NoError(t, db.Create(perm).Error)
	return perm
}

func mustCreatePolicy(t *testing.T, db *gorm.DB, landlordID uint, code, effect string, actions, resources []string, conditions map[string]interface{}) *models.Policy {
	t.Helper()
	policy := &models.Policy{
		LandlordID: landlordID,
		Code:       code,
		Name:       code,
		Effect:     effect,
		Actions:    datatypes.NewJSONSlice(actions),
		Resources:  datatypes.NewJSONSlice(resources),
		Conditions: conditions,
	}
	require.NoError(t, db.Create(policy).Error)
	return policy
}

func mustGrant(t *testing.T, db *gorm.DB, userID, tenantID, roleID uint) {
	t.Helper()
	grant := &models.UserTenantRole{UserID: userID, TenantID: tenantID, RoleID: roleID}
	require.NoError(t, db.Create(grant).Error)
}
