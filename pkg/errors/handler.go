package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"homelink-backend/pkg/common"
)

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Errors    []ErrorDetail          `json:"errors,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorDetail is one failure folded into an aggregated validation error
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler turns errors into HTTP responses. In protected stages internal
// errors are rendered with a generic message only.
type ErrorHandler struct {
	logger    *zap.Logger
	protected bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, protected bool) *ErrorHandler {
	return &ErrorHandler{
		logger:    logger,
		protected: protected,
	}
}

// Format maps err to a status code and response body
func (h *ErrorHandler) Format(err error) (int, ErrorResponse) {
	appErr := GetAppError(err)
	if appErr == nil {
		appErr = NewInternalError(err.Error()).WithCause(err)
	}

	switch appErr.Kind {
	case KindValidation:
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		return status, ErrorResponse{
			Error:   true,
			Type:    string(KindValidation),
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
			Errors:  validationDetails(appErr.Errors),
		}

	case KindInternal:
		if h.protected {
			return http.StatusInternalServerError, ErrorResponse{
				Error:   true,
				Type:    string(KindInternal),
				Code:    string(CodeUnexpected),
				Message: MsgGeneric,
			}
		}
		return http.StatusInternalServerError, ErrorResponse{
			Error:   true,
			Type:    string(KindInternal),
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   true,
			Type:    string(KindInternal),
			Code:    string(CodeUnexpected),
			Message: MsgGeneric,
		}
	}
}

// validationDetails renders the children of an aggregate. Only validation
// children are expected there; anything else is skipped so internal detail
// cannot reach the body.
func validationDetails(children []*AppError) []ErrorDetail {
	if len(children) == 0 {
		return nil
	}
	out := make([]ErrorDetail, 0, len(children))
	for _, child := range children {
		if child == nil || child.Kind != KindValidation {
			continue
		}
		out = append(out, ErrorDetail{
			Code:    string(child.Code),
			Message: child.Message,
			Details: child.Details,
		})
	}
	return out
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, response := h.Format(err)
	response.RequestID = common.ExtractRequestID(r)

	h.logError(r, err, status)
	h.sendJSON(w, status, response)
}

// logError logs the full error regardless of redaction
func (h *ErrorHandler) logError(r *http.Request, err error, status int) {
	meta := common.ExtractMetadata(r.Context())
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", common.ExtractRequestID(r)),
		zap.String("owner_id", meta.OwnerID),
		zap.Duration("elapsed", meta.Duration),
		zap.Error(err),
	}

	if appErr := GetAppError(err); appErr != nil {
		fields = append(fields,
			zap.String("error_kind", string(appErr.Kind)),
			zap.String("error_code", string(appErr.Code)),
		)
		if appErr.IsInternal() && appErr.StackTrace != "" {
			fields = append(fields, zap.String("stack_trace", appErr.StackTrace))
		}
	}

	if status >= 500 {
		h.logger.Error("Request failed", fields...)
		return
	}
	h.logger.Warn("Request rejected", fields...)
}

// sendJSON sends a JSON response
func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware returns an HTTP middleware that turns panics into internal errors
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
