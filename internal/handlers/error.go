package handlers

// ErrorResponse is the standard API error body (message only).
type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the success/soft-error envelope. Business-rule failures
// (duplicate file name, empty store) ship with HTTP 200 and Success=false,
// distinct from HTTP client/server error codes.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
