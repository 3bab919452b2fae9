package errors

import "errors"

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// AppError 业务错误，携带错误码和可读消息
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// ========== 构造方法 ==========

// NewValidation 参数错误（非法ID、跨网络归属不一致等），调用方修正输入后可重试
func NewValidation(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message}
}

// NewNotFound 引用的角色/权限/策略/关联不存在
func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// NewConflict 重复创建（关联已存在、策略代码重复等）
func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewUnauthorized 上下文中没有有效的登录主体，区别于授权DENY
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewInternal 服务器内部错误
func NewInternal(message string) *AppError {
	return &AppError{Code: CodeServerError, Message: message}
}

// ========== 判定方法 ==========

func codeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

func IsValidation(err error) bool {
	return codeOf(err) == CodeInvalidParam
}

func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

func IsConflict(err error) bool {
	return codeOf(err) == CodeConflict
}

func IsUnauthorized(err error) bool {
	return codeOf(err) == CodeUnauthorized
}
