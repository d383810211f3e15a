package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfirmed     = errors.New("cancellation was not confirmed")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrProviderScope    = errors.New("only available to providers")
)

// NotFoundError is returned when a booking id is not in the loaded list.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("booking %s not found", e.ID)
}
