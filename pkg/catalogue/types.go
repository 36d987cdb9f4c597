package catalogue

// ID identifies a library within a Catalogue. IDs are assigned in declaration
// order at construction and are never reused or renumbered.
type ID int

// Library is a single entry in the catalogue
type Library struct {
	// ID is the stable index of this library
	ID ID `json:"id"`

	// Name is the canonical file name, e.g. "libglog.so"
	Name string `json:"name"`
}

// Spec is the static definition a Catalogue is built from
type Spec struct {
	// Metadata contains information about the catalogue
	Metadata Metadata `json:"metadata"`

	// Ignore lists system libraries that are resolved by the platform linker.
	// Dependencies on these are dropped during construction.
	Ignore []string `json:"ignore,omitempty"`

	// Libraries contains every known library in declaration order
	Libraries []LibrarySpec `json:"libraries"`
}

// Metadata contains metadata about a catalogue definition
type Metadata struct {
	// Name is a human-readable name for the catalogue
	Name string `json:"name"`

	// Version is the version of the catalogue content
	Version string `json:"version,omitempty"`
}

// LibrarySpec declares a library and the libraries it directly depends on
type LibrarySpec struct {
	// Name is the library name, either the file name or the short form
	Name string `json:"name"`

	// DependsOn lists the libraries that must be loaded before this one
	DependsOn []string `json:"dependsOn,omitempty"`
}
