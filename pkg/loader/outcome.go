package loader

import "github.com/chazu/libload/pkg/catalogue"

// OutcomeKind is the result of one plan entry
type OutcomeKind string

const (
	// OutcomeLoaded means the library was loaded by this request
	OutcomeLoaded OutcomeKind = "Loaded"

	// OutcomeSkipped means no load was attempted; see Reason
	OutcomeSkipped OutcomeKind = "Skipped"

	// OutcomeFailed means the library is not loaded; see Err
	OutcomeFailed OutcomeKind = "Failed"
)

// Reasons attached to outcomes that did not invoke the native loader
const (
	// ReasonAlreadyLoaded marks a library loaded by an earlier request
	ReasonAlreadyLoaded = "AlreadyLoaded"

	// ReasonPreviouslyFailed marks a library whose load failed in an earlier request
	ReasonPreviouslyFailed = "PreviouslyFailed"
)

// Outcome records what happened to a single plan entry
type Outcome struct {
	ID   catalogue.ID `json:"id"`
	Name string       `json:"name"`
	Kind OutcomeKind  `json:"outcome"`

	// Reason qualifies Skipped and Failed outcomes that made no native call
	Reason string `json:"reason,omitempty"`

	// Mandatory reports whether the request marked this library mandatory
	Mandatory bool `json:"mandatory,omitempty"`

	// Err is the native loader failure for Failed outcomes
	Err error `json:"-"`

	// Error is the message of Err, kept for serialized reports
	Error string `json:"error,omitempty"`
}

func (o *Outcome) fail(err error) {
	o.Kind = OutcomeFailed
	o.Err = err
	if err != nil {
		o.Error = err.Error()
	}
}

// Attempted reports whether the native loader was invoked for this outcome
func (o Outcome) Attempted() bool {
	return o.Reason == "" && o.Kind != OutcomeSkipped
}
