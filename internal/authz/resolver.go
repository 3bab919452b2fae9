package authz

import (
	"context"
	"fmt"

	"authhub/internal/models"
	apperrors "authhub/pkg/errors"
	"authhub/pkg/logger"
)

// Resolver 访问解析器 - 回答"用户U在租户T内能否对资源R执行操作A"
//
// 每次判定都是请求级的全新计算，解析器自身不持有跨请求可变状态，
// 可以在任意多个请求间并发调用。
type Resolver struct {
	store Store
}

// NewResolver 创建访问解析器
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Decide 计算最终授权判定
//
// 错误语义：用户不存在或不可用返回401类错误，租户不存在或已停用返回400类错误，
// 存储故障原样上抛；其余所有路径都终止于显式的ALLOW/DENY判定。
func (r *Resolver) Decide(ctx context.Context, userID, tenantID uint, action, resource string, reqCtx map[string]interface{}) (Decision, error) {
	user, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if user == nil {
		return Decision{}, apperrors.NewUnauthorized("用户不存在")
	}
	if !user.IsActive() {
		return Decision{}, apperrors.NewUnauthorized("用户已被禁用")
	}

	tenant, err := r.store.GetTenant(ctx, tenantID)
	if err != nil {
		return Decision{}, err
	}
	if tenant == nil {
		return Decision{}, apperrors.NewValidation("租户不存在")
	}
	if !tenant.IsActive() {
		return Decision{}, apperrors.NewValidation("租户已被停用")
	}

	// 1. 收集用户在该租户内的角色，租户隔离由这一步保证：
	// 其他租户的授权记录不会进入本次判定
	roles, err := r.store.GetUserTenantRoles(ctx, userID, tenantID)
	if err != nil {
		return Decision{}, err
	}
	if len(roles) == 0 {
		return Deny("租户内无任何角色"), nil
	}

	// 2. 超级管理员特权路径：跳过策略求值无条件放行，记录Warn日志供审计
	for _, role := range roles {
		if role.Code == models.RolePlatformAdmin {
			logger.GetLogger().Warnf(
				"平台管理员特权放行: user=%d tenant=%d action=%s resource=%s",
				userID, tenantID, action, resource,
			)
			return Allow("平台管理员特权放行"), nil
		}
	}

	// 3. 逐角色解析生效权限，筛选出命中(action, resource)的策略
	policies, err := r.collectPolicies(ctx, roles, tenantID, action, resource)
	if err != nil {
		return Decision{}, err
	}

	// 4. 纯函数求值：显式拒绝优先，无适用策略默认拒绝
	return Evaluate(policies, Request{
		Action:   action,
		Resource: resource,
		Context:  reqCtx,
	}), nil
}

// collectPolicies 汇总候选策略：角色权限关联的生效策略（缺失策略
// 的关联折算成隐式DENY），加上直接作用于租户的独立策略。
func (r *Resolver) collectPolicies(ctx context.Context, roles []models.Role, tenantID uint, action, resource string) ([]Policy, error) {
	var policies []Policy
	seen := make(map[uint]bool)

	for _, role := range roles {
		perms, err := r.store.GetRoleEffectivePermissions(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("解析角色 %d 权限失败: %w", role.ID, err)
		}
		for _, ep := range perms {
			if ep.Permission.Action != action || ep.Permission.Resource != resource {
				continue
			}
			if ep.Policy == nil {
				policies = append(policies, ImplicitDenyPolicy(action, resource))
				continue
			}
			if seen[ep.Policy.ID] {
				continue
			}
			seen[ep.Policy.ID] = true
			policies = append(policies, PolicyFromModel(ep.Policy))
		}
	}

	tenantPolicies, err := r.store.GetTenantPolicies(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("获取租户策略失败: %w", err)
	}
	for i := range tenantPolicies {
		if seen[tenantPolicies[i].ID] {
			continue
		}
		seen[tenantPolicies[i].ID] = true
		policies = append(policies, PolicyFromModel(&tenantPolicies[i]))
	}

	return policies, nil
}
