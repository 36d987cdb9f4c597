package catalogue

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Digest computes a hash of the catalogue content for change detection.
// Metadata is excluded so that renaming a catalogue does not change it.
func (c *Catalogue) Digest() string {
	data, err := json.Marshal(c.Table())
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// HasChanged returns true if the catalogue content differs from previousDigest
func (c *Catalogue) HasChanged(previousDigest string) bool {
	if previousDigest == "" {
		return true
	}
	return c.Digest() != previousDigest
}
