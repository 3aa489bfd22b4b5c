package services

import "errors"

// Analysis service errors
var (
	// ErrNoDataset is returned by every view before the first successful load.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrNoInputFiles is returned when the input directory holds no export.
	ErrNoInputFiles = errors.New("no input files found")

	// ErrNoReadableFiles is returned when every input failed to parse. The
	// previous dataset stays in place.
	ErrNoReadableFiles = errors.New("no input file could be read")

	// ErrReloadInProgress is returned by TryReload while another load runs.
	ErrReloadInProgress = errors.New("reload already in progress")
)
