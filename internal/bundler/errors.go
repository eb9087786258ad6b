package bundler

import "errors"

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNoScripts indicates an HTML entry has no module script to bundle
	ErrNoScripts = errors.New("no module scripts in html entry")
	// ErrMissingScript indicates an HTML entry references a script that does not exist
	ErrMissingScript = errors.New("html entry references a missing script")
	// ErrNotBuilt indicates metadata was requested before a build finished
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryNotFound indicates an entry point has no output in the metadata
	ErrEntryNotFound = errors.New("entrypoint not found in metadata")
	// ErrInvalidMode indicates a mode other than production or development
	ErrInvalidMode = errors.New("invalid build mode")
)
