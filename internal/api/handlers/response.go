package handlers

// ErrorResponse is the body of every 4xx/5xx answer except /run's 404,
// which keeps the {"detail": ...} shape existing clients parse.
type ErrorResponse struct {
	Error string `json:"error" example:"Failed to list videos"`
}

type DetailResponse struct {
	Detail string `json:"detail" example:"video not found"`
}
