package database

import (
	"authhub/internal/models"
	"authhub/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Landlord{},
		&models.Tenant{},
		&models.User{},
		&models.Policy{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserTenantRole{},
		&models.TenantInvitation{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
