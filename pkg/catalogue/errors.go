package catalogue

import "fmt"

// NotFoundError is returned when a library name is not registered
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("library %q not found in catalogue", e.Name)
}

// InvalidIDError is returned when an id does not refer to a catalogue entry.
// It indicates a defect in the catalogue definition, not a caller error.
type InvalidIDError struct {
	ID ID

	// Size is the number of libraries in the catalogue
	Size int
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("library id %d out of range [0, %d)", e.ID, e.Size)
}
