package catalogueloader

import (
	"context"
	"fmt"
)

// InlineFetcher handles catalogue definitions passed directly as CUE text
type InlineFetcher struct{}

// NewInlineFetcher creates a new inline fetcher
func NewInlineFetcher() *InlineFetcher {
	return &InlineFetcher{}
}

// Type returns the fetcher type
func (f *InlineFetcher) Type() string {
	return InlineType
}

// Fetch returns the inline content directly.
// The ref parameter IS the CUE content itself; JSON is accepted as CUE.
func (f *InlineFetcher) Fetch(ctx context.Context, ref string) (*FetchResult, error) {
	if ref == "" {
		return nil, fmt.Errorf("inline catalogue content is empty")
	}

	files := []SourceFile{{Name: "inline.cue", Content: []byte(ref)}}

	return &FetchResult{
		Files:  files,
		Digest: contentDigest(InlineType, files),
		Source: InlineType,
	}, nil
}
