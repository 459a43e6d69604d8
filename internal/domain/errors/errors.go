package domainerrors

type DomainError struct {
    Code    string                 `json:"code"`
    Message string                 `json:"message"`
    Details map[string]interface{} `json:"details,omitempty"`
}

func (e DomainError) Error() string { return e.Message }

// Is matches on Code so wrapped copies with different details still compare equal.
func (e DomainError) Is(target error) bool {
    t, ok := target.(DomainError)
    return ok && t.Code == e.Code
}

func New(code, message string, details map[string]interface{}) DomainError {
    return DomainError{Code: code, Message: message, Details: details}
}

var (
    ErrProfileNotFound  = DomainError{Code: "PROFILE_NOT_FOUND", Message: "Profile not found"}
    ErrAPIKeyNotFound   = DomainError{Code: "API_KEY_NOT_FOUND", Message: "API key not found"}
    ErrServiceNotFound  = DomainError{Code: "SERVICE_NOT_FOUND", Message: "Service not found"}
    ErrInvalidPassword  = DomainError{Code: "INVALID_PASSWORD", Message: "Invalid password"}
    ErrValidation       = DomainError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
    ErrInsufficientAuth = DomainError{Code: "INSUFFICIENT_AUTH", Message: "Insufficient permissions"}
    ErrInternal         = DomainError{Code: "INTERNAL_ERROR", Message: "Internal server error"}
)
