package main

import (
	"authhub/internal/database"
	"authhub/internal/models"
	"authhub/pkg/logger"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// seedData 初始化种子数据
func seedData() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	db := database.GetDB()

	// 1. 创建默认网络主体及默认租户
	landlord, err := createDefaultLandlord(db)
	if err != nil {
		return fmt.Errorf("创建默认网络主体失败: %v", err)
	}
	tenant, err := createDefaultTenant(db, landlord.ID)
	if err != nil {
		return fmt.Errorf("创建默认租户失败: %v", err)
	}

	// 2. 创建系统角色
	roles, err := createSystemRoles(db, landlord.ID)
	if err != nil {
		return fmt.Errorf("创建系统角色失败: %v", err)
	}

	// 3. 创建默认放行策略并初始化权限
	policy, err := createDefaultPolicy(db, landlord.ID)
	if err != nil {
		return fmt.Errorf("创建默认策略失败: %v", err)
	}
	if err := initializePermissions(db, landlord.ID, policy.ID); err != nil {
		return fmt.Errorf("初始化权限失败: %v", err)
	}

	// 4. 给租户管理员角色挂接全部权限
	if err := attachTenantAdminPermissions(db, landlord.ID, roles[models.RoleTenantAdmin]); err != nil {
		return fmt.Errorf("挂接租户管理员权限失败: %v", err)
	}

	// 5. 创建默认管理员用户并授予平台管理员角色
	if err := createDefaultAdmin(db, tenant.ID, roles[models.RolePlatformAdmin]); err != nil {
		return fmt.Errorf("创建默认管理员失败: %v", err)
	}

	appLogger.Info("Seed data initialization completed successfully")
	return nil
}

// createDefaultLandlord 创建默认网络主体
func createDefaultLandlord(db *gorm.DB) (*models.Landlord, error) {
	var landlord models.Landlord
	err := db.Where("name = ?", "默认网络主体").First(&landlord).Error
	if err == nil {
		logger.GetLogger().Info("默认网络主体已存在，跳过创建")
		return &landlord, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	landlord = models.Landlord{
		Name:   "默认网络主体",
		Config: datatypes.JSON([]byte(`{}`)),
		Status: models.LandlordStatusActive,
	}
	if err := db.Create(&landlord).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Info("默认网络主体创建成功")
	return &landlord, nil
}

// createDefaultTenant 创建默认租户
func createDefaultTenant(db *gorm.DB, landlordID uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := db.Where("landlord_id = ? AND code = ?", landlordID, "default").First(&tenant).Error
	if err == nil {
		logger.GetLogger().Info("默认租户已存在，跳过创建")
		return &tenant, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	tenant = models.Tenant{
		LandlordID: landlordID,
		Name:       "默认租户",
		Code:       "default",
		Status:     models.TenantStatusActive,
	}
	if err := db.Create(&tenant).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Info("默认租户创建成功")
	return &tenant, nil
}

// createSystemRoles 创建三个系统角色
func createSystemRoles(db *gorm.DB, landlordID uint) (map[string]uint, error) {
	systemRoles := []models.Role{
		{LandlordID: landlordID, Code: models.RolePlatformAdmin, Name: "平台管理员", Description: "平台超级管理员，拥有所有权限", IsSystem: true},
		{LandlordID: landlordID, Code: models.RoleTenantAdmin, Name: "租户管理员", Description: "租户管理员，管理租户内资源", IsSystem: true},
		{LandlordID: landlordID, Code: models.RoleTenantUser, Name: "租户用户", Description: "租户普通用户", IsSystem: true},
	}

	result := make(map[string]uint, len(systemRoles))
	for _, role := range systemRoles {
		var existing models.Role
		err := db.Where("landlord_id = ? AND code = ?", landlordID, role.Code).First(&existing).Error
		if err == nil {
			result[role.Code] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		if err := db.Create(&role).Error; err != nil {
			return nil, err
		}
		result[role.Code] = role.ID
		logger.GetLogger().Infof("系统角色 %s 创建成功", role.Code)
	}
	return result, nil
}

// createDefaultPolicy 创建全量放行策略，作为种子权限的默认策略
func createDefaultPolicy(db *gorm.DB, landlordID uint) (*models.Policy, error) {
	var policy models.Policy
	err := db.Where("landlord_id = ? AND code = ?", landlordID, "default_allow").First(&policy).Error
	if err == nil {
		return &policy, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	policy = models.Policy{
		LandlordID:  landlordID,
		Code:        "default_allow",
		Name:        "默认放行",
		Description: "种子权限的默认策略，对其声明的操作与资源无条件放行",
		Effect:      models.PolicyEffectAllow,
		Actions:     datatypes.NewJSONSlice([]string{"create", "read", "update", "delete", "list"}),
		Resources:   datatypes.NewJSONSlice([]string{"tenant", "user", "role", "permission", "policy"}),
	}
	if err := db.Create(&policy).Error; err != nil {
		return nil, err
	}

	logger.GetLogger().Info("默认放行策略创建成功")
	return &policy, nil
}

// initializePermissions 初始化权限
func initializePermissions(db *gorm.DB, landlordID uint, defaultPolicyID uint) error {
	type permDef struct {
		resource string
		action   string
		name     string
	}

	var defs []permDef
	resources := map[string]string{
		"tenant":     "租户",
		"user":       "用户",
		"role":       "角色",
		"permission": "权限",
		"policy":     "策略",
	}
	actions := map[string]string{
		models.ActionCreate: "创建",
		models.ActionRead:   "查看",
		models.ActionUpdate: "更新",
		models.ActionDelete: "删除",
		models.ActionList:   "列表",
	}
	for resource, rname := range resources {
		for action, aname := range actions {
			defs = append(defs, permDef{resource: resource, action: action, name: aname + rname})
		}
	}

	created := 0
	for _, def := range defs {
		var count int64
		if err := db.Model(&models.Permission{}).
			Where("landlord_id = ? AND action = ? AND resource = ?", landlordID, def.action, def.resource).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		policyID := defaultPolicyID
		perm := models.Permission{
			LandlordID:      landlordID,
			Code:            def.resource + ":" + def.action,
			Name:            def.name,
			Action:          def.action,
			Resource:        def.resource,
			DefaultPolicyID: &policyID,
		}
		if err := db.Create(&perm).Error; err != nil {
			return err
		}
		created++
	}

	if created > 0 {
		logger.GetLogger().Infof("初始化权限完成，新建 %d 条", created)
	}
	return nil
}

// attachTenantAdminPermissions 租户管理员挂接全部种子权限（继承默认策略）
func attachTenantAdminPermissions(db *gorm.DB, landlordID uint, roleID uint) error {
	var perms []models.Permission
	if err := db.Where("landlord_id = ?", landlordID).Find(&perms).Error; err != nil {
		return err
	}

	for _, perm := range perms {
		var count int64
		if err := db.Model(&models.RolePermission{}).
			Where("role_id = ? AND permission_id = ?", roleID, perm.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		assoc := models.RolePermission{
			RoleID:        roleID,
			PermissionID:  perm.ID,
			InheritPolicy: true,
		}
		if err := db.Create(&assoc).Error; err != nil {
			return err
		}
	}
	return nil
}

// createDefaultAdmin 创建默认管理员用户
func createDefaultAdmin(db *gorm.DB, tenantID uint, platformAdminRoleID uint) error {
	var user models.User
	err := db.Where("username = ?", "admin").First(&user).Error
	if err == gorm.ErrRecordNotFound {
		user = models.User{
			Username: "admin",
			Email:    "admin@authhub.local",
			Name:     "系统管理员",
			Status:   models.UserStatusActive,
		}
		if err := user.SetPassword("Admin@123"); err != nil {
			return err
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		logger.GetLogger().Info("默认管理员创建成功（用户名: admin，请尽快修改初始密码）")
	} else if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.UserTenantRole{}).
		Where("user_id = ? AND tenant_id = ? AND role_id = ?", user.ID, tenantID, platformAdminRoleID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	grant := models.UserTenantRole{
		UserID:   user.ID,
		TenantID: tenantID,
		RoleID:   platformAdminRoleID,
	}
	return db.Create(&grant).Error
}
