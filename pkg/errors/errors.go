package errors

import (
	"errors"
	"fmt"
)

// ── 通用错误类别 ──
// 业务模块的具体错误通过 %w 包装这些类别，调用方用 errors.Is 判断

var (
	// ErrValidation 字段缺失、为空或枚举值非法
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrAlreadyAttended 记录已标记为已接待，状态迁移只允许发生一次
	ErrAlreadyAttended = errors.New("记录已接待")
	// ErrBackendUnavailable 持久化后端故障，必须向调用方透传
	ErrBackendUnavailable = errors.New("存储服务不可用")
)

// ValidationError 携带出错字段的校验错误
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError 创建校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unavailable 将底层存储错误包装为 ErrBackendUnavailable，保留原始错误链
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
}
