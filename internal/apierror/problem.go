// Package apierror writes RFC 9457 problem details for the HTTP surface.
package apierror

// ProblemDetails is an RFC 9457 problem document with a few extensions.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	// UserMessage is safe to show in the app.
	UserMessage string `json:"user_message,omitempty"`
	// RetryAfter is in seconds (429, 503).
	RetryAfter *int         `json:"retry_after,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// FieldError points at one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}
