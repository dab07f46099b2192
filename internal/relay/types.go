package relay

// GenerateRequest is the body accepted by POST /api/generate-gif.
type GenerateRequest struct {
	ImageData string `json:"imageData" binding:"required"`
}

// GenerateResponse is returned when the animation API produced media.
type GenerateResponse struct {
	GifURL  string `json:"gifUrl"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Status  string `json:"status,omitempty"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}

const (
	statusSuccess    = "success"
	statusProcessing = "processing"
	statusFailed     = "failed"

	messageGenerated = "GIF generated successfully"
)

var (
	errMissingInput = ErrorResponse{
		Error:   "No image data provided",
		Details: "Please upload an image first",
	}
	errInvalidFormat = ErrorResponse{
		Error:   "Invalid base64 data",
		Details: "The provided image data is not in valid base64 format",
	}
	errUpstreamTimeout = ErrorResponse{
		Error:  "Request is taking longer than expected",
		Status: statusProcessing,
	}
)

func upstreamFailure(detail string) ErrorResponse {
	return ErrorResponse{
		Error:   "Failed to process request",
		Details: detail,
		Status:  statusFailed,
	}
}

func bodyTooLarge(limit int64) ErrorResponse {
	return ErrorResponse{
		Error:   "Request body too large",
		Details: "Image payloads are limited to " + formatBytes(limit),
	}
}
