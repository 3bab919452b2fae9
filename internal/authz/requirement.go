package authz

// 受保护操作在路由注册处声明的授权要求。
//
// 四种带标签的要求变体由中间件的统一分发器求值（取代注解/切面织入），
// 求值顺序和短路行为在组合处显式可见。

// Requirement 授权要求的标签接口
type Requirement interface {
	isRequirement()
}

// RoleRequirement 角色要求：主体必须持有角色集合中至少一个（OR）
// 或全部（AND，由RequireAll控制）角色，不限定租户范围
type RoleRequirement struct {
	Codes      []string
	RequireAll bool
}

func (RoleRequirement) isRequirement() {}

// PermissionRequirement 权限要求：主体必须通过访问解析器对
// 声明的(action, resource)的完整判定
type PermissionRequirement struct {
	Action   string
	Resource string
}

func (PermissionRequirement) isRequirement() {}

// TenantAccessRequirement 租户访问要求：主体必须在路径/查询参数
// 指定的租户内持有授权记录；持有平台管理员角色且允许旁路时放行
type TenantAccessRequirement struct {
	Param              string // 租户ID参数名，如 "tenant_id"
	AllowPlatformAdmin bool
}

func (TenantAccessRequirement) isRequirement() {}

// OwnershipOrRoleRequirement 所有权或角色要求：主体要么就是参数
// 指定的目标用户本人，要么持有角色集合中的某个角色
type OwnershipOrRoleRequirement struct {
	Param string // 目标用户ID参数名，如 "id"
	Codes []string
}

func (OwnershipOrRoleRequirement) isRequirement() {}
