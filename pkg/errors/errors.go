package errors

import "errors"

// ── 错误分类（Kind） ──
//
// 业务层统一返回 *Error：Kind 用于 errors.Is 匹配与 HTTP 映射，
// Message 面向最终用户，Cause 仅写入日志。

var (
	ErrMissingCredential    = errors.New("missing credential")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrEmptyResponse        = errors.New("empty response")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrExtractionFailed     = errors.New("extraction failed")
	ErrValidation           = errors.New("validation error")
	ErrIO                   = errors.New("io error")
	ErrPersistenceRead      = errors.New("persistence read error")
	ErrExtractionInProgress = errors.New("extraction in progress")
	ErrNoSchedule           = errors.New("no schedule loaded")
)

// Error 带用户提示的业务错误
type Error struct {
	Kind    error
	Message string
	Cause   error
}

// New 创建业务错误
func New(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap 同时暴露 Kind 与 Cause，errors.Is 可匹配任意一方
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// UserMessage 提取面向用户的提示；非业务错误返回 fallback
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// Is 转发标准库，便于调用方只导入本包
func Is(err, target error) bool { return errors.Is(err, target) }

// As 转发标准库
func As(err error, target any) bool { return errors.As(err, target) }
