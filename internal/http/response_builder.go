package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/remote"
	"finboard/internal/services"
	"finboard/internal/store"
)

// errUpstream marks a failed backend read made on behalf of a request.
var errUpstream = errors.New("backend unavailable")

func upstream(err error) error {
	return fmt.Errorf("%w: %w", errUpstream, err)
}

// ChangedHeader names the entity a mutation touched so clients can refetch.
const ChangedHeader = "X-Finboard-Changed"

// ResponseBuilder provides a fluent API for JSON responses.
type ResponseBuilder struct {
	status  int
	body    any
	headers map[string]string
}

// NewResponse creates a builder with a 200 status and no body.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{status: http.StatusOK, headers: map[string]string{}}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.status = code
	return b
}

func (b *ResponseBuilder) Body(v any) *ResponseBuilder {
	b.body = v
	return b
}

func (b *ResponseBuilder) Header(key, value string) *ResponseBuilder {
	b.headers[key] = value
	return b
}

// Changed marks the response as the result of a mutation on entity.
func (b *ResponseBuilder) Changed(entity string) *ResponseBuilder {
	return b.Header(ChangedHeader, entity)
}

// Write sends the response. A nil body with a 2xx status becomes 204.
func (b *ResponseBuilder) Write(c *gin.Context) {
	for k, v := range b.headers {
		c.Header(k, v)
	}
	if b.body == nil {
		if b.status == http.StatusOK {
			b.status = http.StatusNoContent
		}
		c.Status(b.status)
		return
	}
	c.JSON(b.status, b.body)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse maps a service error to a status code and body:
// validation 422, budget conflict 409, unknown id 404, backend failure 502.
func ErrorResponse(err error) *ResponseBuilder {
	var (
		fe core.FieldErrors
		me *services.MutationError
		se *remote.StatusError
	)
	switch {
	case errors.As(err, &fe):
		return NewResponse().Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: "validation failed", Fields: fe})
	case errors.Is(err, services.ErrInvalid):
		return NewResponse().Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: err.Error()})
	case errors.Is(err, store.ErrBudgetConflict):
		return NewResponse().Status(http.StatusConflict).
			Body(ErrorBody{Error: store.ConflictMessage})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, remote.ErrNotFound):
		return NewResponse().Status(http.StatusNotFound).
			Body(ErrorBody{Error: "not found"})
	case errors.As(err, &me):
		return NewResponse().Status(http.StatusBadGateway).
			Body(ErrorBody{Error: me.Error()})
	case errors.Is(err, errUpstream), errors.As(err, &se):
		return NewResponse().Status(http.StatusBadGateway).
			Body(ErrorBody{Error: errUpstream.Error()})
	default:
		return NewResponse().Status(http.StatusInternalServerError).
			Body(ErrorBody{Error: "internal error"})
	}
}

// respondError logs err on the request logger and writes the mapped response.
func respondError(c *gin.Context, op string, err error) {
	resp := ErrorResponse(err)
	logger := log.FromContext(c.Request.Context())
	fields := log.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(errorType(resp.status))
	if resp.status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", fields.ToSlice()...)
	} else {
		logger.DebugContext(c.Request.Context(), "request rejected", fields.ToSlice()...)
	}
	_ = c.Error(err)
	resp.Write(c)
}

// errorType buckets a mapped status for the error_type log field.
func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusBadGateway:
		return log.ErrorTypeNetwork
	default:
		return log.ErrorTypeInternal
	}
}

// BadRequest reports a body that could not be decoded at all.
func BadRequest(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusBadRequest).Body(ErrorBody{Error: message})
}
