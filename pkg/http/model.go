package http

// APIResponse is the envelope used for error responses.
type APIResponse struct {
	Status  int         `json:"status" example:"404"`
	Message string      `json:"message" example:"Not Found"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"key"`
	Message string                 `json:"message,omitempty" example:"Key is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
