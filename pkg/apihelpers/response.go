package apihelpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind classifies handler failures. Kinds stay distinct internally so
// handlers and logs can tell them apart; some collapse to the same external
// status and message at the boundary.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindConflict
	KindUnauthenticated
	KindInvalidToken
	KindExpiredToken
	KindTokenReuse
	KindAccountLocked
	KindNotFound
	KindInternal
)

type APIError struct {
	Kind    ErrorKind
	Message string
	Errs    []string
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(kind ErrorKind, message string, errs ...string) *APIError {
	return &APIError{Kind: kind, Message: message, Errs: errs}
}

func (e *APIError) statusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated, KindInvalidToken, KindExpiredToken, KindTokenReuse:
		return http.StatusUnauthorized
	case KindAccountLocked:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// externalMessage collapses the token kinds to one generic message so the
// response does not leak which verification step failed.
func (e *APIError) externalMessage() string {
	switch e.Kind {
	case KindInvalidToken, KindExpiredToken, KindTokenReuse:
		return "invalid or expired session"
	case KindInternal:
		return "internal server error"
	default:
		return e.Message
	}
}

// APIResponse is the uniform JSON body all endpoints respond with.
type APIResponse struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

func WriteData(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, APIResponse{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// WriteError translates any error into the error envelope. Errors that are
// not APIErrors cross the boundary as a bare 500; no internal detail leaks.
func WriteError(c *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = NewAPIError(KindInternal, "internal server error")
	}

	status := apiErr.statusCode()
	errs := apiErr.Errs
	if errs == nil {
		errs = []string{}
	}
	c.AbortWithStatusJSON(status, APIResponse{
		Success:    false,
		StatusCode: status,
		Message:    apiErr.externalMessage(),
		Errors:     errs,
	})
}
