package types

// SuccessEnvelope wraps every successful API payload. Message carries the
// HTTP status phrase unless a handler supplies its own.
type SuccessEnvelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
