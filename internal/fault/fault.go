// Package fault classifies repository and auth failures into a closed set of
// categories. Failures are classified once, at the boundary that produced
// them, and consumers branch on the category without re-interpreting the
// underlying error.
package fault

import "errors"

// Category identifies one class of failure.
type Category string

const (
	// Auth means no authenticated user is available; the consumer is
	// redirected to login.
	Auth Category = "auth"
	// Permission means the store or an owner check denied access.
	Permission Category = "permission"
	// NotFound means the requested record does not exist.
	NotFound Category = "not-found"
	// Network means the transport to the store failed.
	Network Category = "network"
	// Service means the store is temporarily unavailable.
	Service Category = "service"
	// Validation means the payload failed local checks before any store
	// call was attempted.
	Validation Category = "validation"
	// Unknown is the fallback so that no failure is ever swallowed
	// without a user-visible signal.
	Unknown Category = "unknown"
)

// Navigation is a forced navigation a surfaced failure may demand.
type Navigation int

const (
	NavigateNone Navigation = iota
	NavigateLogin
	NavigateBack
)

// Fault is an error carrying its category.
type Fault struct {
	Category Category
	Reason   string
	Err      error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return f.Reason + ": " + f.Err.Error()
	}
	return f.Reason
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// New creates a fault with a reason and no wrapped error.
func New(category Category, reason string) *Fault {
	return &Fault{Category: category, Reason: reason}
}

// Wrap creates a fault around an underlying error.
func Wrap(category Category, reason string, err error) *Fault {
	return &Fault{Category: category, Reason: reason, Err: err}
}

// CategoryOf extracts the category from an error chain. Errors that never
// passed through a classifying boundary degrade to Unknown.
func CategoryOf(err error) Category {
	var f *Fault
	if errors.As(err, &f) {
		return f.Category
	}
	return Unknown
}

// Retryable reports whether a manual retry should be offered for this
// category. Retries are never scheduled automatically.
func (c Category) Retryable() bool {
	switch c {
	case Network, Service, Unknown:
		return true
	}
	return false
}

// Navigation returns the forced navigation for this category, if any.
func (c Category) Navigation() Navigation {
	switch c {
	case Auth:
		return NavigateLogin
	case Permission, NotFound:
		return NavigateBack
	}
	return NavigateNone
}

// Message returns the user-facing message for this category.
func (c Category) Message() string {
	switch c {
	case Auth:
		return "Please log in again to continue."
	case Permission:
		return "You do not have permission to do that."
	case NotFound:
		return "The requested scan was not found."
	case Network:
		return "Network error. Check your connection and try again."
	case Service:
		return "The service is temporarily unavailable. Please try again."
	case Validation:
		return "Invalid QR code data detected."
	}
	return "An unexpected error occurred."
}
