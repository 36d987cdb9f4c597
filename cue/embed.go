// Package cue provides embedded CUE catalogue definitions.
package cue

import "embed"

// CatalogueFS contains the embedded library catalogues.
// Each catalogue lives in its own directory under catalogues/.
//
//go:embed catalogues/*/*.cue
var CatalogueFS embed.FS

// Schema is the CUE schema every catalogue definition is unified with.
//
//go:embed schema.cue
var Schema string

// CatalogueDir is the root directory within the embedded filesystem.
const CatalogueDir = "catalogues"

// DefaultCatalogue is the catalogue used when no source is configured.
const DefaultCatalogue = "reactnative"

// SchemaDefinition is the definition catalogues are checked against.
const SchemaDefinition = "#Catalogue"
