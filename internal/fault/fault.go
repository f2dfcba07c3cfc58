package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeNotInspectable Code = "NOT_INSPECTABLE"
	CodeBadLocation    Code = "BAD_LOCATION"
	CodeConfig         Code = "CONFIG_ERROR"
	CodeUsage          Code = "USAGE_ERROR"
	CodeParse          Code = "PARSE_ERROR"
	CodeStorage        Code = "STORAGE_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

type Error struct {
	Code    Code
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxModule  = "module"
	CtxPath    = "path"
	CtxPattern = "pattern"
	CtxKey     = "key"
)

func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var fe *Error
	if errors.As(err, &fe) {
		fe.WithContext(key, value)
		return fe
	}
	return &Error{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code Code) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
