// Package registry holds the in-memory catalog of extracurricular activities
// and the signup/unregister operations that mutate it.
package registry

import "errors"

var (
	// ErrActivityNotFound is returned when a requested activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadySignedUp is returned when the email is already on the participant list.
	ErrAlreadySignedUp = errors.New("student is already signed up")
	// ErrNotSignedUp is returned when unregistering an email that is not on the participant list.
	ErrNotSignedUp = errors.New("student is not signed up for this activity")
)

// --- Functional Interfaces ---

// Reader defines the read operations on the activity catalog.
type Reader interface {
	// List returns every activity in catalog order.
	List() Catalog
	// Get returns a single activity by name.
	Get(name string) (Activity, error)
}

// Enrollment defines the participant mutations.
// Both operations return a human-readable confirmation on success.
type Enrollment interface {
	Signup(activity, email string) (string, error)
	Unregister(activity, email string) (string, error)
}

// OccupancySource reports enrolment counts, used by the metrics collector.
type OccupancySource interface {
	Occupancy() []Occupancy
}

// Store combines everything the HTTP layer needs.
type Store interface {
	Reader
	Enrollment
}
