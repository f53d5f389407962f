package apierror

// Problem type URIs (urn:habitpulse:error:*), used as the RFC 9457 "type"
// member.
const (
	TypeValidation   = "urn:habitpulse:error:validation"
	TypeBadRequest   = "urn:habitpulse:error:bad_request"
	TypeInvalidID    = "urn:habitpulse:error:invalid_id"
	TypeUnauthorized = "urn:habitpulse:error:unauthorized"
	TypeNotFound     = "urn:habitpulse:error:not_found"
	TypeConflict     = "urn:habitpulse:error:conflict"
	TypeRateLimit    = "urn:habitpulse:error:rate_limit"
	TypeInternal     = "urn:habitpulse:error:internal"
	TypeUnavailable  = "urn:habitpulse:error:unavailable"
)

const (
	TitleValidation   = "Validation Error"
	TitleBadRequest   = "Bad Request"
	TitleInvalidID    = "Invalid Identifier"
	TitleUnauthorized = "Authentication Required"
	TitleNotFound     = "Resource Not Found"
	TitleConflict     = "Resource Conflict"
	TitleRateLimit    = "Rate Limit Exceeded"
	TitleInternal     = "Internal Server Error"
	TitleUnavailable  = "Insights temporarily unavailable"
)
