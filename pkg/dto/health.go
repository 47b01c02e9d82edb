package dto

// HealthResponse describes the payload returned by standard /healthz endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ReadyResponse is returned by /readyz once downstream dependencies answer.
type ReadyResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error envelope: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges an accepted webhook delivery.
type SuccessResponse struct {
	Success bool `json:"success"`
}
