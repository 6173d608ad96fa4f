package common

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// StatusResponse acknowledges a write that returns no record
type StatusResponse struct {
	Status bool `json:"status"`
}

// RespondJSON sends data as the JSON body. Device routes answer with the bare
// record or list rather than an envelope.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondStatus sends {"status": true}
func RespondStatus(w http.ResponseWriter) {
	RespondJSON(w, http.StatusOK, StatusResponse{Status: true})
}

// ExtractRequestID extracts the request ID from headers or the request context.
// An ID placed by the entry point (the Lambda invocation) outranks the one
// the router mints.
func ExtractRequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if id, ok := GetRequestID(r.Context()); ok && id != "" {
		return id
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}
