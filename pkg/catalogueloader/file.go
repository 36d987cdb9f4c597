package catalogueloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileFetcher reads catalogue definitions from the local filesystem.
// The reference is either a single .cue, .json or .yaml file or a directory
// whose files of those formats together form the definition.
type FileFetcher struct{}

// NewFileFetcher creates a new file fetcher
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Type returns the fetcher type
func (f *FileFetcher) Type() string {
	return FileType
}

// Fetch reads the file or directory at ref
func (f *FileFetcher) Fetch(ctx context.Context, ref string) (*FetchResult, error) {
	if ref == "" {
		return nil, fmt.Errorf("catalogue file path is empty")
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalogue %s: %w", ref, err)
	}

	var files []SourceFile
	if info.IsDir() {
		files, err = readCatalogueFiles(os.DirFS(abs), ".")
		if err != nil {
			return nil, fmt.Errorf("failed to read catalogue directory %s: %w", ref, err)
		}
	} else {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalogue %s: %w", ref, err)
		}
		files = []SourceFile{{Name: filepath.Base(abs), Content: data}}
	}

	return &FetchResult{
		Files:  files,
		Digest: contentDigest("file", files),
		Source: fmt.Sprintf("file://%s", abs),
	}, nil
}
