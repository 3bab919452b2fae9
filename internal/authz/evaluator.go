package authz

import (
	"fmt"

	"authhub/internal/models"
)

// Evaluate 对单个请求求值一组候选策略，返回ALLOW或DENY
//
// 组合规则：适用策略中只要有一条DENY则拒绝（显式拒绝优先）；
// 否则有一条ALLOW则放行；没有任何适用策略时默认拒绝（fail-closed）。
// 纯函数：相同输入必然得到相同判定，无副作用、无I/O。
func Evaluate(policies []Policy, req Request) Decision {
	var denyBy, allowBy string
	denied, allowed := false, false

	for _, p := range policies {
		if !applicable(p, req) {
			continue
		}
		switch p.Effect {
		case models.PolicyEffectDeny:
			if !denied {
				denied = true
				denyBy = p.Code
			}
		case models.PolicyEffectAllow:
			if !allowed {
				allowed = true
				allowBy = p.Code
			}
		}
	}

	if denied {
		return Deny("策略 " + denyBy + " 显式拒绝")
	}
	if allowed {
		return Allow("策略 " + allowBy + " 放行")
	}
	return Deny("没有适用的策略")
}

// applicable 策略是否适用于该请求：
// 操作和资源都精确命中列表，且所有条件在请求上下文中满足。
func applicable(p Policy, req Request) bool {
	if !containsString(p.Actions, req.Action) {
		return false
	}
	if !containsString(p.Resources, req.Resource) {
		return false
	}
	return conditionsMatch(p.Conditions, req.Context)
}

// conditionsMatch 条件键必须全部出现在请求上下文中且逐一满足；
// 条件未满足的策略不适用（无论其效果是什么）。
func conditionsMatch(conditions, reqCtx map[string]interface{}) bool {
	for key, expected := range conditions {
		actual, exists := reqCtx[key]
		if !exists {
			return false
		}
		if !matchValue(expected, actual) {
			return false
		}
	}
	return true
}

// matchValue 单个条件值的匹配：
//   - 带操作符的map（如 {"$in": [...]}) 按操作符语义比较
//   - 普通嵌套map按"存在+相等"递归匹配
//   - 标量按相等语义比较
func matchValue(expected, actual interface{}) bool {
	if m, ok := expected.(map[string]interface{}); ok {
		if op, val, isOp := singleOperator(m); isOp {
			return applyOperator(op, val, actual)
		}
		nested, ok := actual.(map[string]interface{})
		if !ok {
			return false
		}
		return conditionsMatch(m, nested)
	}
	return compareEquals(actual, expected)
}

// 条件操作符常量
const (
	OperatorEq  = "$eq"
	OperatorNe  = "$ne"
	OperatorIn  = "$in"
	OperatorGT  = "$gt"
	OperatorGTE = "$gte"
	OperatorLT  = "$lt"
	OperatorLTE = "$lte"
)

// singleOperator 条件值是否是形如 {"$in": [...]} 的单操作符表达式
func singleOperator(m map[string]interface{}) (string, interface{}, bool) {
	if len(m) != 1 {
		return "", nil, false
	}
	for op, val := range m {
		switch op {
		case OperatorEq, OperatorNe, OperatorIn, OperatorGT, OperatorGTE, OperatorLT, OperatorLTE:
			return op, val, true
		}
	}
	return "", nil, false
}

func applyOperator(op string, expected, actual interface{}) bool {
	switch op {
	case OperatorEq:
		return compareEquals(actual, expected)
	case OperatorNe:
		return !compareEquals(actual, expected)
	case OperatorIn:
		return compareIn(actual, expected)
	case OperatorGT:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a > b })
	case OperatorGTE:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a >= b })
	case OperatorLT:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a < b })
	case OperatorLTE:
		return compareNumeric(actual, expected, func(a, b float64) bool { return a <= b })
	}
	return false
}

// compareEquals 标量相等比较，统一格式化后比较以容忍JSON数字类型差异
func compareEquals(actual, expected interface{}) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

// compareIn 成员判定
func compareIn(actual, expected interface{}) bool {
	expectedSlice, ok := expected.([]interface{})
	if !ok {
		return false
	}
	actualStr := fmt.Sprint(actual)
	for _, item := range expectedSlice {
		if fmt.Sprint(item) == actualStr {
			return true
		}
	}
	return false
}

func compareNumeric(actual, expected interface{}, cmp func(a, b float64) bool) bool {
	actualFloat, err1 := toFloat64(actual)
	expectedFloat, err2 := toFloat64(expected)
	if err1 != nil || err2 != nil {
		return false
	}
	return cmp(actualFloat, expectedFloat)
}

func toFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case string:
		var f float64
		_, err := fmt.Sscanf(v, "%g", &f)
		return f, err
	default:
		return 0, fmt.Errorf("无法转换为数值: %T", val)
	}
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
