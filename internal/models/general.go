package models

// ErrorResponse defines API error response format
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// StatusResponse defines generic operation result format
type StatusResponse struct {
	Status string `json:"status" example:"success"`
}
