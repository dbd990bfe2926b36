package errors

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类，Handler 层据此映射 HTTP 状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindStore
)

// String 返回分类名，主要用于日志
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindStore:
		return "store"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误
// Field 仅在校验错误时填写，指出出错的请求字段
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建指定分类的错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation 字段级校验错误
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound 资源不存在
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden 资源存在但调用方不是所有者
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Store 包装持久化层错误；err 为 nil 时返回 nil
func Store(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return &Error{Kind: KindStore, Message: "存储操作失败", Err: err}
}

// KindOf 提取错误分类；非 *Error 一律视为内部错误
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind 判断错误链中是否存在指定分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage 对外可见的错误描述，不包含底层错误细节
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Field != "" {
			return appErr.Field + ": " + appErr.Message
		}
		return appErr.Message
	}
	return "服务器内部错误"
}

// ErrUnauthenticated 请求未携带有效身份
var ErrUnauthenticated = New(KindUnauthenticated, "未认证")
