package domain

// Registration is the input for creating a principal.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ValidationError is a single reason a registration was rejected.
type ValidationError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Validation error codes.
const (
	CodeInvalidEmail                    = "InvalidEmail"
	CodeDuplicateEmail                  = "DuplicateEmail"
	CodeFirstNameRequired               = "FirstNameRequired"
	CodeLastNameRequired                = "LastNameRequired"
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordTooLong                 = "PasswordTooLong"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
)

// LoginRequest carries credentials for the login operation.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
