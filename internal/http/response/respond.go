package response

import (
	"encoding/json"
	"net/http"

	"github.com/trailpost/tours-api/pkg/logger"
)

// HandlerFunc is an http.HandlerFunc that may fail. Handlers signal
// failure by returning; they never format error bodies themselves.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Renderer is the terminal error-formatting stage. Every route is
// wrapped by Handle so the error shape is uniform across the API.
type Renderer struct {
	Production bool
}

func (rn *Renderer) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		rn.render(w, r, AsError(err))
	}
}

type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (rn *Renderer) render(w http.ResponseWriter, r *http.Request, e *Error) {
	status := "error"
	if e.Status < http.StatusInternalServerError {
		status = "fail"
	}

	body := errorBody{Status: status, Code: e.Code, Message: e.Message}

	if !e.Operational {
		logger.ErrorContext(r.Context(), "unexpected error",
			"error", e.Error(),
			"method", r.Method,
			"path", r.URL.Path,
		)
		if !rn.Production && e.Err != nil {
			body.Detail = e.Err.Error()
		}
	}

	JSON(w, e.Status, body)
}

// WriteError renders err terminally. Middleware that fails a request
// before any handler runs goes through here so the shape stays uniform.
func (rn *Renderer) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	rn.render(w, r, AsError(err))
}

// NotFoundHandler is the catch-all for unmatched routes.
func (rn *Renderer) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rn.render(w, r, NotFound("can't find "+r.URL.Path+" on this server"))
	}
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// Data writes the single-document success envelope.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{
		"status": "success",
		"data":   map[string]any{"data": v},
	})
}

// List writes the collection envelope with a result count.
func List(w http.ResponseWriter, count int, v any) {
	JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": count,
		"data":    map[string]any{"data": v},
	})
}

// Project reduces v's JSON object to the given fields. Used by the
// field-limiting query stage; projection happens at render time so the
// store always scans full rows. Empty fields returns v unchanged.
func Project(v any, fields []string) any {
	if len(fields) == 0 {
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	keep := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		keep[f] = struct{}{}
	}

	prune := func(m map[string]json.RawMessage) map[string]json.RawMessage {
		for k := range m {
			if _, ok := keep[k]; !ok {
				delete(m, k)
			}
		}
		return m
	}

	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = prune(list[i])
		}
		return list
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return prune(obj)
	}
	return v
}
