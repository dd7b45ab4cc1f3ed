package domain

import "errors"

var (
	// ErrUnknownEventSignature is returned when a log matches no registered event. It is never retried.
	ErrUnknownEventSignature = errors.New("unknown event signature")

	// ErrInvariantViolation is returned for states that cannot happen on a consistent chain. It is never retried.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrProjectNotFound is returned when an event references a git project whose creating event was not processed yet
	ErrProjectNotFound = errors.New("git project not found, maybe the creating event was not processed yet")

	// ErrDripListNotFound is returned when an event references a drip list whose creating transfer was not processed yet
	ErrDripListNotFound = errors.New("drip list not found, maybe the creating event was not processed yet")

	// ErrInvalidAccountID is returned when an account id is not a uint256
	ErrInvalidAccountID = errors.New("invalid account id")

	// ErrInvalidProjectName is returned when a project name is not "owner/repo"
	ErrInvalidProjectName = errors.New("invalid project name")

	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")
)

// IsFatal reports whether err must not be retried
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnknownEventSignature) || errors.Is(err, ErrInvariantViolation)
}

// IsReferential reports whether err is caused by an aggregate whose creating event is still pending
func IsReferential(err error) bool {
	return errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrDripListNotFound)
}
