package models

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// GenerateEmailResponse is returned to the mail client macro. Failures are
// reported through Success/ErrorMessage, never through the HTTP status.
// @Description Email generation response payload
type GenerateEmailResponse struct {
	Success       bool    `json:"success" example:"true"`
	GeneratedText string  `json:"generated_text" example:"안녕하세요,"`
	ErrorMessage  *string `json:"error_message" example:""`
}

// NewSuccessResponse wraps generated text
func NewSuccessResponse(text string) GenerateEmailResponse {
	return GenerateEmailResponse{
		Success:       true,
		GeneratedText: text,
	}
}

// NewErrorResponse wraps a generation failure
func NewErrorResponse(err error) GenerateEmailResponse {
	msg := err.Error()
	return GenerateEmailResponse{
		Success:      false,
		ErrorMessage: &msg,
	}
}

// ValidationErrorDetail describes one rejected request field
type ValidationErrorDetail struct {
	Type string   `json:"type" example:"missing"`
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg" example:"Field required"`
}

// ValidationErrorResponse is the 422 payload for malformed requests
type ValidationErrorResponse struct {
	Detail []ValidationErrorDetail `json:"detail"`
}
