package weixin

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known errcode values returned by the WeChat backend.
const (
	CodeSystemBusy        = -1
	CodeInvalidCredential = 40001
	CodeInvalidGrantType  = 40002
	CodeInvalidAppID      = 40013
	CodeInvalidCode       = 40029
	CodeInvalidPage       = 41030
	CodeFrequencyLimit    = 45011
)

var (
	// ErrSecretHolderNotSet is returned by New when no SecretHolder is supplied.
	ErrSecretHolderNotSet = errors.New("secretHolder not set")
	// ErrTransportNotSet is returned by New when no transport is supplied.
	ErrTransportNotSet = errors.New("transport not set")
	// ErrInvalidArgument matches every *ArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSecretNotFound matches every *SecretNotFoundError.
	ErrSecretNotFound = errors.New("secret not found")
)

// ArgumentError reports a blank or missing required argument.
type ArgumentError struct {
	Param string
}

func (e *ArgumentError) Error() string { return e.Param + " not set" }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// SecretNotFoundError reports that the SecretHolder has no secret for an application id.
type SecretNotFoundError struct {
	AppID string
}

func (e *SecretNotFoundError) Error() string { return "secret not found for " + e.AppID }

func (e *SecretNotFoundError) Is(target error) bool { return target == ErrSecretNotFound }

// ResponseError carries a non-zero errcode embedded in a response body.
type ResponseError struct {
	Code    int
	Message string
	// RID is the request trace id WeChat appends to errmsg, if any.
	RID string
}

func (e *ResponseError) Error() string {
	if e.RID == "" {
		return fmt.Sprintf("weixin errcode %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("weixin errcode %d: %s (rid: %s)", e.Code, e.Message, e.RID)
}

// IsErrCode reports whether err wraps a ResponseError with the given code.
func IsErrCode(err error, code int) bool {
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	return respErr.Code == code
}

const ridMarker = "rid: "

// splitRID separates the trailing "rid: xxx" suffix from an errmsg.
func splitRID(msg string) (string, string) {
	idx := strings.LastIndex(msg, ridMarker)
	if idx < 0 || (idx > 0 && msg[idx-1] != ' ') {
		return strings.TrimSpace(msg), ""
	}
	return strings.TrimSpace(msg[:idx]), strings.TrimSpace(msg[idx+len(ridMarker):])
}

func notBlank(value, param string) error {
	if strings.TrimSpace(value) == "" {
		return &ArgumentError{Param: param}
	}
	return nil
}
