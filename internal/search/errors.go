package search

import "fmt"

// ValidationError 输入校验失败，消息面向调用方，指明出错字段
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError 创建带字段信息的校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError 调用方身份缺失或无效
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// InternalError 搜索管线内部故障，对外只暴露通用消息，细节只进日志
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// NewInternalError 包装底层错误
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}
