// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// EntryRequest is the body of create and update requests.
// Every field is optional at decode time; required fields are enforced by the service.
type EntryRequest struct {
	Project   *string  `json:"project"`
	Name      *string  `json:"name"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
	Duration  *float64 `json:"duration"`
}

// ErrorResponse is the error envelope for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConfigResponse is the client configuration document.
type ConfigResponse struct {
	APIEndpoint string `json:"apiEndpoint"`
}
