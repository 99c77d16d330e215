// Package sources retrieves the remote extension and theme catalogs as typed
// entries.
//
// The package defines the Fetcher interface which abstracts downloading a
// catalog snapshot, validating its shape, and canonicalizing entry
// identifiers. A snapshot is either returned whole or not at all: transport
// failures surface as *FetchError and malformed payloads as *ParseError.
//
// Architecture:
//   - Fetcher: downloads, validates and decodes one catalog
//   - SourceHandler: retrieves raw bytes for one URL scheme
//   - SourceHandlerFactory: picks the handler for a URL scheme
//   - CatalogDataValidator: checks the payload against the catalog JSON schema
//     and decodes it into catalog entries
//
// Current handlers:
//   - APISourceHandler: HTTP(S) endpoints, always requested with no-cache semantics
//   - FileSourceHandler: local files, which may contain comments and trailing commas
package sources
