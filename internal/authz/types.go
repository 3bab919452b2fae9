package authz

import (
	"authhub/internal/models"
)

// Request 一次授权请求：主体想在什么上下文里对什么资源做什么操作
type Request struct {
	Action   string                 `json:"action"`
	Resource string                 `json:"resource"`
	Context  map[string]interface{} `json:"context"`
}

// Decision 授权判定结果
//
// DENY是正常返回值而不是错误：只有真正的故障（存储不可用、
// 数据不一致）才会以error形式向上传播。
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Allow 构造放行判定
func Allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

// Deny 构造拒绝判定
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Policy 策略的求值视图，由存储层的策略实体转换而来
type Policy struct {
	Code       string
	Effect     string // models.PolicyEffectAllow / models.PolicyEffectDeny
	Actions    []string
	Resources  []string
	Conditions map[string]interface{}
}

// PolicyFromModel 将策略实体转换为求值视图
func PolicyFromModel(p *models.Policy) Policy {
	return Policy{
		Code:       p.Code,
		Effect:     p.Effect,
		Actions:    p.Actions,
		Resources:  p.Resources,
		Conditions: p.Conditions,
	}
}

// ImplicitDenyPolicy 为没有可执行策略的角色权限关联构造隐式DENY策略
//
// inherit=false 且无override时的保守默认（宁可拒绝，不可放行）。
func ImplicitDenyPolicy(action, resource string) Policy {
	return Policy{
		Code:      "implicit_deny",
		Effect:    models.PolicyEffectDeny,
		Actions:   []string{action},
		Resources: []string{resource},
	}
}
