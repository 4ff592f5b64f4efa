package common

// Response structures

// ListMeta describes the page returned by a list request. Page and Limit are
// the values actually applied after clamping, not the raw request values.
type ListMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type ListResponse struct {
	Data []map[string]interface{} `json:"data"`
	Meta ListMeta                 `json:"meta"`
}

type ReportResponse struct {
	Data    []map[string]interface{} `json:"data"`
	Summary map[string]interface{}   `json:"summary"`
}

type FormResponse struct {
	Message string      `json:"message"`
	Product interface{} `json:"product"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type APIError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}
