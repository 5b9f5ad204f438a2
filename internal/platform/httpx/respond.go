// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details. Extra carries
// extension members and is merged into the top-level object.
type ProblemDetail struct {
	Type   string         `json:"type,omitempty"`
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail,omitempty"`
	Extra  map[string]any `json:"-"`
}

// MarshalJSON flattens extension members into the problem object.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(p.Extra))
	out["title"] = p.Title
	out["status"] = p.Status
	if p.Type != "" {
		out["type"] = p.Type
	}
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	for k, v := range p.Extra {
		switch k {
		case "type", "title", "status", "detail":
			continue
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent sends an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ProblemExtra sends an RFC7807 problem details response with extension members.
func ProblemExtra(w http.ResponseWriter, status int, title, detail string, extra map[string]any) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
		Extra:  extra,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
