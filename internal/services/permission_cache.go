package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authhub/internal/authz"
	"authhub/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// PermissionCache 角色→生效权限集合的Redis缓存
//
// 命中与否只影响性能不影响语义：任何RolePermission或策略变更必须在
// 同一次调用内同步失效对应条目（write-through invalidation），
// 过期条目会导致少授权或多授权，这是正确性约束而不是性能优化。
// client为nil时所有方法退化为空操作，读取方直接走数据库。
type PermissionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewPermissionCache 创建权限缓存
func NewPermissionCache(client *redis.Client, prefix string) *PermissionCache {
	return &PermissionCache{
		client: client,
		prefix: prefix,
		ttl:    time.Hour,
	}
}

func (c *PermissionCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *PermissionCache) roleKey(roleID uint) string {
	return fmt.Sprintf("%s:authz:role:%d:perms", c.prefix, roleID)
}

// GetRolePermissions 读取角色的生效权限缓存
func (c *PermissionCache) GetRolePermissions(ctx context.Context, roleID uint) ([]authz.EffectivePermission, bool) {
	if !c.enabled() {
		return nil, false
	}

	data, err := c.client.Get(ctx, c.roleKey(roleID)).Bytes()
	if err != nil {
		return nil, false
	}

	var perms []authz.EffectivePermission
	if err := json.Unmarshal(data, &perms); err != nil {
		// 缓存内容损坏，删掉走数据库
		c.client.Del(ctx, c.roleKey(roleID))
		return nil, false
	}
	return perms, true
}

// SetRolePermissions 写入角色的生效权限缓存
func (c *PermissionCache) SetRolePermissions(ctx context.Context, roleID uint, perms []authz.EffectivePermission) {
	if !c.enabled() {
		return
	}

	data, err := json.Marshal(perms)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.roleKey(roleID), data, c.ttl).Err(); err != nil {
		logger.GetLogger().Warnf("写入权限缓存失败: role=%d err=%v", roleID, err)
	}
}

// InvalidateRole 同步失效单个角色的缓存条目
func (c *PermissionCache) InvalidateRole(ctx context.Context, roleID uint) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, c.roleKey(roleID)).Err()
}

// InvalidateRoles 同步失效一批角色的缓存条目
func (c *PermissionCache) InvalidateRoles(ctx context.Context, roleIDs []uint) error {
	if !c.enabled() || len(roleIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		keys = append(keys, c.roleKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
