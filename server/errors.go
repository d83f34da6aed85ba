package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"policy_workbench/export"
	"policy_workbench/generator"
	"policy_workbench/policy"
	"policy_workbench/store"
)

var (
	errSessionNotFound = errors.New("session not found")
	errBadRequest      = errors.New("bad request")
)

type apiError struct {
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
	Raw     string   `json:"raw,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Unwrap() error { return errBadRequest }

// respondError 把领域错误映射为状态码与稳定的 code。
func respondError(c *gin.Context, err error) {
	status, body := classify(err)
	c.AbortWithStatusJSON(status, errorEnvelope{Error: body})
}

func classify(err error) (int, apiError) {
	body := apiError{Message: err.Error()}
	var (
		inputErr *generator.InputError
		parseErr *generator.ParseFailedError
	)
	switch {
	case errors.As(err, &inputErr):
		body.Code = "missing_input"
		body.Missing = inputErr.Missing
		body.Invalid = inputErr.Invalid
		return http.StatusBadRequest, body
	case errors.Is(err, errBadRequest):
		body.Code = "bad_request"
		return http.StatusBadRequest, body
	case errors.Is(err, policy.ErrInvalidStatus):
		body.Code = "invalid_status"
		return http.StatusBadRequest, body
	case errors.Is(err, generator.ErrLocked):
		body.Code = "locked"
		return http.StatusConflict, body
	case errors.Is(err, generator.ErrNoActiveRecord):
		body.Code = "no_active_record"
		return http.StatusConflict, body
	case errors.As(err, &parseErr):
		body.Code = "parse_failed"
		body.Raw = parseErr.Raw
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, export.ErrFontRequired):
		body.Code = "font_required"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, generator.ErrTransport):
		body.Code = "transport"
		return http.StatusBadGateway, body
	case errors.Is(err, errSessionNotFound):
		body.Code = "session_not_found"
		return http.StatusNotFound, body
	case errors.Is(err, store.ErrNotFound), errors.Is(err, policy.ErrNotFound):
		body.Code = "not_found"
		return http.StatusNotFound, body
	default:
		body.Code = "internal"
		return http.StatusInternalServerError, body
	}
}
