// Package types provides common type definitions shared across umbra packages.
// This package contains only type definitions and interfaces, no logic.
package types

// SourceType identifies the type of a blob source.
// Constants for standard types are defined in the source package.
type SourceType string

// DocumentFormat identifies the format of an interchange document.
// Constants for standard formats are defined in the document package.
type DocumentFormat string

// WatcherType identifies the type of a watcher.
// Constants for standard types are defined in the watcher package.
type WatcherType string

// Details holds metadata about a source and the blob it yields.
// The import path uses it to classify blobs before parsing them.
type Details struct {
	// Source is the type of source (e.g., "fs", "bytes", "s3").
	Source SourceType

	// Name is the file name or object key of the blob, used for
	// extension-based classification. Empty if unknown.
	Name string

	// Path is the full location of the blob (file path, s3 URL).
	Path string

	// MediaType is the declared content type, e.g. "application/json".
	// Empty if the source does not know it.
	MediaType string

	// Watcher is the type of watcher used for change detection.
	Watcher WatcherType
}

// DetailsFiller is an interface for populating Details with metadata.
type DetailsFiller interface {
	FillDetails(d *Details)
}
