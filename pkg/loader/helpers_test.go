package loader

import (
	"context"
	"sync"
	"time"

	"github.com/chazu/libload/pkg/catalogue"
)

// mockNativeLoader is a mock implementation of NativeLoader for testing
type mockNativeLoader struct {
	mu        sync.Mutex
	calls     []string
	failNames map[string]error
	loadDelay time.Duration
}

func newMockNativeLoader() *mockNativeLoader {
	return &mockNativeLoader{
		calls:     make([]string, 0),
		failNames: make(map[string]error),
	}
}

func (m *mockNativeLoader) LoadLibrary(ctx context.Context, fileName string) error {
	if m.loadDelay > 0 {
		time.Sleep(m.loadDelay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, fileName)
	if err, shouldFail := m.failNames[fileName]; shouldFail {
		return err
	}
	return nil
}

func (m *mockNativeLoader) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.calls))
	copy(result, m.calls)
	return result
}

func (m *mockNativeLoader) callCount(fileName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.calls {
		if call == fileName {
			n++
		}
	}
	return n
}

func (m *mockNativeLoader) setFailName(fileName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNames[fileName] = err
}

// fataler is satisfied by *testing.T, *testing.B and GinkgoT()
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

// buildCatalogue creates a catalogue from a name -> dependencies table,
// declaring libraries in the order given by names
func buildCatalogue(t fataler, names []string, deps map[string][]string) *catalogue.Catalogue {
	t.Helper()
	spec := &catalogue.Spec{Metadata: catalogue.Metadata{Name: "test", Version: "v1"}}
	for _, name := range names {
		spec.Libraries = append(spec.Libraries, catalogue.LibrarySpec{
			Name:      name,
			DependsOn: deps[name],
		})
	}
	cat, err := catalogue.New(spec)
	if err != nil {
		t.Fatalf("catalogue.New() failed: %v", err)
	}
	return cat
}

// diamondCatalogue is {A:[], B:[A], C:[A], D:[B,C]}
func diamondCatalogue(t fataler) *catalogue.Catalogue {
	return buildCatalogue(t, []string{"a", "b", "c", "d"}, map[string][]string{
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	})
}

func outcomeNames(outcomes []Outcome) []string {
	names := make([]string, len(outcomes))
	for i, o := range outcomes {
		names[i] = o.Name
	}
	return names
}
