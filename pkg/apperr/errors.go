package apperr

import (
	"fmt"
	"time"
)

// Code 错误分类代码
type Code string

// 错误分类，对应服务层的处理策略：
// 上游类错误在服务内部降级消化，仓储类错误原样上抛。
const (
	UpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE" // 上游网络/提供商失败
	NoData              Code = "NO_DATA"              // 上游正常响应但无数据
	InvalidSymbol       Code = "INVALID_SYMBOL"       // 代码格式非法，访问仓储/上游之前即拒绝
	StoreError          Code = "STORE_ERROR"          // 数据库层失败，事务回滚后上抛
	InvalidDateRange    Code = "INVALID_DATE_RANGE"   // 日期区间非法
	InvalidAdjust       Code = "INVALID_ADJUST"       // 复权方式非法
)

// Error 带分类代码的基础错误类型
type Error struct {
	Code      Code                   `json:"code"`              // 错误的分类代码
	Message   string                 `json:"message"`           // 人类可读的错误信息
	Cause     error                  `json:"-"`                 // 导致此错误的原始错误
	Context   map[string]interface{} `json:"context,omitempty"` // 额外的上下文信息
	Timestamp time.Time              `json:"timestamp"`         // 错误发生的时间戳
}

// New 创建新错误
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap 包装现有错误
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 支持错误链
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按分类代码比较错误
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext 为错误附加键值对上下文
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsCode 判断 err 链上是否存在指定分类的错误
func IsCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
