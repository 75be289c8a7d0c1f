package response

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ReprocessResponse struct {
	Message       string `json:"message"`
	CalculationID string `json:"calculationId"`
}

type SubmitResponse struct {
	Message       string `json:"message"`
	CalculationID string `json:"calculationId"`
	Format        string `json:"format"`
}
