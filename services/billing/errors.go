package billing

import "fmt"

// PreconditionError reports missing local state. The request is never sent.
type PreconditionError struct {
	Field   string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func missingAccount() error {
	return &PreconditionError{
		Field:   "account_number",
		Message: "missing account number for provider; billing rows must include account_number",
	}
}
