package catalogueloader

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	cuecatalogues "github.com/chazu/libload/cue"
)

// EmbeddedFetcher serves catalogues compiled into the binary
type EmbeddedFetcher struct {
	fsys fs.FS
	root string
}

// NewEmbeddedFetcher creates a fetcher over the catalogues embedded in the
// cue package
func NewEmbeddedFetcher() *EmbeddedFetcher {
	return NewEmbeddedFetcherWithFS(cuecatalogues.CatalogueFS, cuecatalogues.CatalogueDir)
}

// NewEmbeddedFetcherWithFS creates an embedded fetcher reading catalogues
// from root within fsys
func NewEmbeddedFetcherWithFS(fsys fs.FS, root string) *EmbeddedFetcher {
	return &EmbeddedFetcher{
		fsys: fsys,
		root: root,
	}
}

// Type returns the fetcher type
func (f *EmbeddedFetcher) Type() string {
	return EmbeddedType
}

// Fetch returns the .cue files of the embedded catalogue named ref
// (e.g. "reactnative")
func (f *EmbeddedFetcher) Fetch(ctx context.Context, ref string) (*FetchResult, error) {
	if ref == "" {
		return nil, fmt.Errorf("embedded catalogue reference is empty")
	}

	dir := path.Join(f.root, ref)
	if info, err := fs.Stat(f.fsys, dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("embedded catalogue %s not found", ref)
	}

	files, err := readCUEFiles(f.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalogue %s: %w", ref, err)
	}

	return &FetchResult{
		Files:  files,
		Digest: contentDigest("embedded:"+ref, files),
		Source: fmt.Sprintf("embedded://%s", ref),
	}, nil
}

// ListCatalogues returns the names of the embedded catalogues
func (f *EmbeddedFetcher) ListCatalogues() ([]string, error) {
	entries, err := fs.ReadDir(f.fsys, f.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded catalogues: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// readCUEFiles reads all .cue files below dir in lexical order
func readCUEFiles(fsys fs.FS, dir string) ([]SourceFile, error) {
	files, err := readSourceFiles(fsys, dir, isCUEFile)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue files found in %s", dir)
	}
	return files, nil
}

// readCatalogueFiles reads all .cue, .json and .yaml files below dir in
// lexical order
func readCatalogueFiles(fsys fs.FS, dir string) ([]SourceFile, error) {
	files, err := readSourceFiles(fsys, dir, isCatalogueFile)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalogue files found in %s", dir)
	}
	return files, nil
}

func isCUEFile(name string) bool {
	return strings.HasSuffix(name, ".cue")
}

func isCatalogueFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".cue", ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func readSourceFiles(fsys fs.FS, dir string, match func(name string) bool) ([]SourceFile, error) {
	var files []SourceFile

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden directories (like .git)
		if d.IsDir() && p != dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if d.IsDir() || !match(d.Name()) {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, SourceFile{Name: p, Content: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
