package catalogue

import (
	"fmt"
)

// Validate checks the integrity of the Spec. Dependency cycles are not
// rejected here; they are detected when a load plan is built.
func (s *Spec) Validate() error {
	if s.Metadata.Name == "" {
		return fmt.Errorf("catalogue metadata.name is required")
	}

	ignored := s.ignoredSet()

	// Check for duplicate library names
	names := make(map[string]bool, len(s.Libraries))
	for i, lib := range s.Libraries {
		if err := lib.validateName(); err != nil {
			return fmt.Errorf("libraries[%d]: %w", i, err)
		}
		fileName := FileName(lib.Name)
		if names[fileName] {
			return fmt.Errorf("duplicate library name: %s", fileName)
		}
		if ignored[fileName] {
			return fmt.Errorf("library %s is also listed as ignored", fileName)
		}
		names[fileName] = true
	}

	// Validate each library's dependencies
	for _, lib := range s.Libraries {
		if err := lib.Validate(names, ignored); err != nil {
			return fmt.Errorf("library %s: %w", FileName(lib.Name), err)
		}
	}

	return nil
}

// Validate checks the integrity of a LibrarySpec against the set of known
// and ignored library file names
func (l *LibrarySpec) Validate(known, ignored map[string]bool) error {
	if err := l.validateName(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(l.DependsOn))
	for _, dep := range l.DependsOn {
		depName := FileName(dep)
		if depName == "" {
			return fmt.Errorf("dependency name is required")
		}
		if seen[depName] {
			return fmt.Errorf("duplicate dependency: %s", depName)
		}
		seen[depName] = true

		if !known[depName] && !ignored[depName] {
			return fmt.Errorf("depends on non-existent library: %s", depName)
		}
	}

	return nil
}

func (l *LibrarySpec) validateName() error {
	if FileName(l.Name) == "" {
		return fmt.Errorf("library name is required")
	}
	return nil
}

func (s *Spec) ignoredSet() map[string]bool {
	ignored := make(map[string]bool, len(s.Ignore))
	for _, name := range s.Ignore {
		ignored[FileName(name)] = true
	}
	return ignored
}
