package types

import (
	"errors"
	"fmt"
)

// 错误类型定义
var (
	ErrInvalidParameter = errors.New("invalid parameter")  // 参数配置错误
	ErrUnknownProtocol  = errors.New("unknown protocol")   // 未知加载协议
	ErrIntegration      = errors.New("integration failed") // 数值积分失败
)

// ValidationError 配置校验错误，构造或分发时立即返回
type ValidationError struct {
	Field  string // 参数名称
	Reason string // 错误原因
	Kind   error  // ErrInvalidParameter 或 ErrUnknownProtocol
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// NewValidationError 参数错误
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Kind: ErrInvalidParameter}
}

// IntegrationError 计算失败，标记协议与时间索引
type IntegrationError struct {
	Protocol ProtocolID // 协议
	Index    int        // 时间索引
	Time     float64    // 时间点
	Err      error      // 底层错误
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%v: protocol %s step %d (t=%.6g): %v", ErrIntegration, e.Protocol, e.Index, e.Time, e.Err)
}

func (e *IntegrationError) Unwrap() []error { return []error{ErrIntegration, e.Err} }

// InvariantError 内部数值不变量被破坏，属于不可恢复的故障，以 panic 抛出
type InvariantError struct {
	What string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.What }
