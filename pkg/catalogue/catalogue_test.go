package catalogue

import (
	"errors"
	"slices"
	"testing"
)

// diamondSpec is {A:[], B:[A], C:[A], D:[B,C]}
func diamondSpec() *Spec {
	return &Spec{
		Metadata: Metadata{Name: "diamond", Version: "v1"},
		Libraries: []LibrarySpec{
			{Name: "a"},
			{Name: "b", DependsOn: []string{"a"}},
			{Name: "c", DependsOn: []string{"a"}},
			{Name: "d", DependsOn: []string{"b", "c"}},
		},
	}
}

func mustNew(t *testing.T, spec *Spec) *Catalogue {
	t.Helper()
	c, err := New(spec)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spec
		wantErr bool
	}{
		{
			name:    "diamond dependency",
			spec:    diamondSpec(),
			wantErr: false,
		},
		{
			name: "cycle is accepted",
			spec: &Spec{
				Metadata: Metadata{Name: "cycle"},
				Libraries: []LibrarySpec{
					{Name: "x", DependsOn: []string{"y"}},
					{Name: "y", DependsOn: []string{"x"}},
				},
			},
			wantErr: false,
		},
		{
			name: "dangling dependency",
			spec: &Spec{
				Metadata: Metadata{Name: "dangling"},
				Libraries: []LibrarySpec{
					{Name: "a", DependsOn: []string{"missing"}},
				},
			},
			wantErr: true,
		},
		{
			name: "duplicate name across forms",
			spec: &Spec{
				Metadata: Metadata{Name: "dup"},
				Libraries: []LibrarySpec{
					{Name: "glog"},
					{Name: "libglog.so"},
				},
			},
			wantErr: true,
		},
		{
			name:    "nil spec",
			spec:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && c == nil {
				t.Error("New() returned nil catalogue without error")
			}
		})
	}
}

func TestNew_AssignsIDsInDeclarationOrder(t *testing.T) {
	c := mustNew(t, diamondSpec())

	want := []string{"liba.so", "libb.so", "libc.so", "libd.so"}
	if got := c.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	for i, lib := range c.Libraries() {
		if lib.ID != ID(i) {
			t.Errorf("Libraries()[%d].ID = %d, want %d", i, lib.ID, i)
		}
	}
}

func TestNew_DropsIgnoredDependencies(t *testing.T) {
	c := mustNew(t, &Spec{
		Metadata: Metadata{Name: "ignored"},
		Ignore:   []string{"c", "libdl.so"},
		Libraries: []LibrarySpec{
			{Name: "glog", DependsOn: []string{"libc.so", "dl"}},
			{Name: "fb", DependsOn: []string{"c", "glog"}},
		},
	})

	deps, err := c.DependenciesOf(0)
	if err != nil {
		t.Fatalf("DependenciesOf(0) failed: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("DependenciesOf(0) = %v, want empty", deps)
	}

	deps, err = c.DependenciesOf(1)
	if err != nil {
		t.Fatalf("DependenciesOf(1) failed: %v", err)
	}
	if !slices.Equal(deps, []ID{0}) {
		t.Errorf("DependenciesOf(1) = %v, want [0]", deps)
	}
}

func TestResolve(t *testing.T) {
	c := mustNew(t, diamondSpec())

	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"file name", "libd.so", 3, false},
		{"short name", "b", 1, false},
		{"unknown", "libmissing.so", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Resolve(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Errorf("Resolve(%q) error type = %T, want *NotFoundError", tt.input, err)
				} else if nf.Name != tt.input {
					t.Errorf("NotFoundError.Name = %q, want %q", nf.Name, tt.input)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDependenciesOf(t *testing.T) {
	c := mustNew(t, diamondSpec())

	deps, err := c.DependenciesOf(3)
	if err != nil {
		t.Fatalf("DependenciesOf(3) failed: %v", err)
	}
	if !slices.Equal(deps, []ID{1, 2}) {
		t.Errorf("DependenciesOf(3) = %v, want [1 2]", deps)
	}

	// The result is a copy
	deps[0] = 0
	again, _ := c.DependenciesOf(3)
	if !slices.Equal(again, []ID{1, 2}) {
		t.Errorf("DependenciesOf(3) after mutation = %v, want [1 2]", again)
	}

	deps, err = c.DependenciesOf(0)
	if err != nil {
		t.Fatalf("DependenciesOf(0) failed: %v", err)
	}
	if deps == nil || len(deps) != 0 {
		t.Errorf("DependenciesOf(0) = %#v, want empty non-nil slice", deps)
	}

	for _, id := range []ID{-1, 4, 100} {
		_, err := c.DependenciesOf(id)
		var invalid *InvalidIDError
		if !errors.As(err, &invalid) {
			t.Errorf("DependenciesOf(%d) error = %v, want *InvalidIDError", id, err)
		}
	}
}

func TestLibrary(t *testing.T) {
	c := mustNew(t, diamondSpec())

	lib, err := c.Library(2)
	if err != nil {
		t.Fatalf("Library(2) failed: %v", err)
	}
	if lib.Name != "libc.so" || lib.ID != 2 {
		t.Errorf("Library(2) = %+v, want {ID:2 Name:libc.so}", lib)
	}

	if _, err := c.Library(9); err == nil {
		t.Error("Library(9) expected error")
	}
	if name := c.Name(9); name != "" {
		t.Errorf("Name(9) = %q, want empty", name)
	}
}

func TestFromTable(t *testing.T) {
	c, err := FromTable(Metadata{Name: "table"},
		[]string{"libglog.so", "libfb.so", "libfolly_json.so"},
		[][]int{{}, {}, {0}},
	)
	if err != nil {
		t.Fatalf("FromTable() failed: %v", err)
	}

	id, err := c.Resolve("folly_json")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	deps, _ := c.DependenciesOf(id)
	if !slices.Equal(deps, []ID{0}) {
		t.Errorf("DependenciesOf(%d) = %v, want [0]", id, deps)
	}

	_, err = FromTable(Metadata{Name: "table"}, []string{"a"}, [][]int{{3}})
	var invalid *InvalidIDError
	if !errors.As(err, &invalid) {
		t.Fatalf("FromTable() with dangling edge error = %v, want *InvalidIDError", err)
	}
	if invalid.ID != 3 {
		t.Errorf("InvalidIDError.ID = %d, want 3", invalid.ID)
	}

	if _, err := FromTable(Metadata{}, []string{"a", "b"}, [][]int{{}}); err == nil {
		t.Error("FromTable() with mismatched lengths expected error")
	}
}

func TestSpec_RoundTrip(t *testing.T) {
	c := mustNew(t, diamondSpec())

	rebuilt, err := New(c.Spec())
	if err != nil {
		t.Fatalf("New(Spec()) failed: %v", err)
	}
	if rebuilt.Digest() != c.Digest() {
		t.Errorf("rebuilt digest = %s, want %s", rebuilt.Digest(), c.Digest())
	}
}
