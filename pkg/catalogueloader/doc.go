// Package catalogueloader fetches library catalogue definitions from embedded,
// file, inline, git and ConfigMap sources, checks them against the catalogue CUE
// schema and builds catalogues from them, caching the result by content digest.
package catalogueloader
