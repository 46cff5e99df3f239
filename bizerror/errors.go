package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"authkernel/common"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPassword = errors.New("invalid password")
)

type BizError interface {
	Respond() *common.BizErrorDetail
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *common.BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// ErrNotFound names the collection which failed to resolve, so a bulk
// validation failure can tell the caller whether projects or roles were missing.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return e.Resource + " not found"
}
func (e *ErrNotFound) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusNotFound, Code: "common.record_not_found",
		Message: e.Resource + " not found"}
}

type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
func (e *ErrConflict) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusConflict, Code: "common.conflict", Message: e.Message}
}

func NotFound(resource string) error {
	return &ErrNotFound{Resource: resource}
}

func Conflict(format string, args ...interface{}) error {
	return &ErrConflict{Message: fmt.Sprintf(format, args...)}
}
