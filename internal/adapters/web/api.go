package web

import (
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/ports"
)

// HealthResult is the response for GET /api/health.
type HealthResult struct {
	Status  string `json:"status"`
	Aliases int    `json:"aliases"`
	Uptime  string `json:"uptime"`
}

// FieldInfo describes one canonical field.
type FieldInfo struct {
	Field   string `json:"field"`
	Aliases int    `json:"aliases"`
}

// FieldsResult is the response for GET /api/fields.
type FieldsResult struct {
	Fields []FieldInfo `json:"fields"`
	Count  int         `json:"count"`
}

// ResolveRequest is the body of POST /api/tenants/{tenant}/resolve.
type ResolveRequest struct {
	Columns []ports.Column `json:"columns"`
}

// ResolveResult is the response for POST /api/tenants/{tenant}/resolve.
type ResolveResult struct {
	Results    []field.MatchResult `json:"results"`
	Unresolved int                 `json:"unresolved"`
}

// ConfirmRequest is the body of POST /api/tenants/{tenant}/mappings.
// A nil Confidence records history.DefaultConfidence.
type ConfirmRequest struct {
	Header     string   `json:"header"`
	Field      string   `json:"field"`
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// MappingsResult is the response for GET /api/tenants/{tenant}/mappings.
type MappingsResult struct {
	Mappings []ports.MappingRecord `json:"mappings"`
	Count    int                   `json:"count"`
}

// ErrorResult is the body of every non-2xx response.
type ErrorResult struct {
	Error string `json:"error"`
}
