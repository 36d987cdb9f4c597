package loader

import (
	"fmt"
	"strings"

	"github.com/chazu/libload/pkg/catalogue"
)

// CycleDetectedError is returned when a plan's traversal reaches a library
// that is still being expanded
type CycleDetectedError struct {
	// ID is the library that was revisited
	ID catalogue.ID

	// Name is the file name of the revisited library
	Name string

	// Path lists the libraries forming the cycle, starting and ending with Name
	Path []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected at %s: %s", e.Name, strings.Join(e.Path, " -> "))
}

// MandatoryLoadFailedError is returned when a library marked mandatory fails
// to load. The remaining plan entries are not attempted.
type MandatoryLoadFailedError struct {
	ID   catalogue.ID
	Name string

	// Err is the failure reported by the native loader
	Err error

	// Outcomes holds the outcomes recorded before the plan was aborted,
	// including the failed entry itself
	Outcomes []Outcome
}

func (e *MandatoryLoadFailedError) Error() string {
	return fmt.Sprintf("mandatory library %s failed to load: %v", e.Name, e.Err)
}

func (e *MandatoryLoadFailedError) Unwrap() error {
	return e.Err
}

// LinkError is returned by native loaders when a library cannot be linked
type LinkError struct {
	Name string
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("cannot link %s: %v", e.Name, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}
