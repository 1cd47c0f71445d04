package types

// SuccessEnvelope wraps every successful JSON response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the caller-facing error. RequestID lets support staff find the
// matching log lines.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
