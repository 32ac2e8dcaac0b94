// Package dto defines request and response bodies for HTTP API v1.
package dto

// IDResponse is the standard creation response.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is the standard acknowledgement response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListMeta carries pagination info.
type ListMeta struct {
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
