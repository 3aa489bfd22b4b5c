// Package services implements the business logic layer between the HTTP
// handlers and the analysis engine.
//
// # Available Services
//
//	- AnalysisService: loads instrument exports, holds the current dataset
//	  and serves cached aggregation views
//	- HealthService: liveness, readiness and version information
//
// # Dataset Lifecycle
//
// A load parses every input file, builds a complete dataset and only then
// swaps it in. Readers keep the dataset they started with. Cached views
// are keyed by dataset version, and the previous version's entries are
// dropped after a swap. When every input fails to parse the previous
// dataset stays in place and ErrNoReadableFiles is returned.
//
// # Error Handling
//
// Services return the sentinel errors of errors.go, wrapped with context.
// Handlers match them with errors.Is.
package services
