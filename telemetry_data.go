// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"encoding/json"
	"time"
)

// now is a function point that returns time.Now to the caller.
var now = time.Now

// TelemetryData holds all telemetry data of an extraction.
type TelemetryData struct {
	// ArchiveFormat is the display name of the extracted format, e.g. "TAR.GZ"
	ArchiveFormat string `json:"archive_format"`

	// ExtractedDirs is the number of extracted directories
	ExtractedDirs int64 `json:"extracted_dirs"`

	// ExtractedFiles is the number of extracted files
	ExtractedFiles int64 `json:"extracted_files"`

	// ExtractedLinks is the number of hard links materialized as copies
	ExtractedLinks int64 `json:"extracted_links"`

	// ExtractedSymlinks is the number of extracted symlinks
	ExtractedSymlinks int64 `json:"extracted_symlinks"`

	// ExtractionDuration is the time it took to extract the archive
	ExtractionDuration time.Duration `json:"extraction_duration"`

	// ExtractionErrors is the number of errors during extraction
	ExtractionErrors int64 `json:"extraction_errors"`

	// ExtractionSize is the size of the extracted files
	ExtractionSize int64 `json:"extraction_size"`

	// InputSize is the number of bytes read from the archive file
	InputSize int64 `json:"input_size"`

	// LastExtractionError is the last error during extraction
	LastExtractionError error `json:"last_extraction_error"`

	// RootStripped is true if a single enclosing directory was removed
	RootStripped bool `json:"root_stripped"`

	// UnsupportedFiles is the number of skipped unsupported files
	UnsupportedFiles int64 `json:"unsupported_files"`

	// LastUnsupportedFile is the last skipped unsupported file
	LastUnsupportedFile string `json:"last_unsupported_file"`
}

// String returns a string representation of [TelemetryData].
func (td TelemetryData) String() string {
	b, _ := json.Marshal(td)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (td TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError string
	if td.LastExtractionError != nil {
		lastError = td.LastExtractionError.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastExtractionError string `json:"last_extraction_error"`
		*Alias
	}{
		LastExtractionError: lastError,
		Alias:               (*Alias)(&td),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after an extraction has finished which can be used to submit the [TelemetryData]
// to a telemetry service, for example. It is called exactly once per extraction,
// successful or not.
type TelemetryHook func(context.Context, *TelemetryData)

// captureExtractionDuration captures the duration of the extraction
func captureExtractionDuration(td *TelemetryData, start time.Time) {
	td.ExtractionDuration = now().Sub(start)
}

// captureInputSize captures the bytes read from the archive file
func captureInputSize(td *TelemetryData, pr *ProgressReader) {
	td.InputSize = pr.BytesRead()
}

// captureError counts err and keeps it as the last extraction error.
func captureError(td *TelemetryData, err error) error {
	if err != nil {
		td.ExtractionErrors++
		td.LastExtractionError = err
	}
	return err
}
