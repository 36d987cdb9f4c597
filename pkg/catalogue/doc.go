// Package catalogue provides the immutable registry of native libraries and
// their declared dependencies. It includes the catalogue definition format,
// validation, name normalisation and whole-catalogue graph queries.
package catalogue
