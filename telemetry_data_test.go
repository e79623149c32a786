// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDataString tests the String method of the data struct
func TestDataString(t *testing.T) {
	m := TelemetryData{
		ArchiveFormat:       "TAR.GZ",
		ExtractionDuration:  time.Duration(5 * time.Millisecond),
		ExtractionSize:      1024,
		ExtractedFiles:      5,
		ExtractedSymlinks:   2,
		ExtractedDirs:       1,
		ExtractionErrors:    1,
		LastExtractionError: fmt.Errorf("example error"),
		InputSize:           2048,
		RootStripped:        true,
	}

	expected := `{"last_extraction_error":"example error","archive_format":"TAR.GZ","extracted_dirs":1,"extracted_files":5,"extracted_links":0,"extracted_symlinks":2,"extraction_duration":5000000,"extraction_errors":1,"extraction_size":1024,"input_size":2048,"root_stripped":true,"unsupported_files":0,"last_unsupported_file":""}`
	assert.Equal(t, expected, m.String())
}

func TestDataStringNoError(t *testing.T) {
	assert.True(t, strings.HasPrefix(TelemetryData{}.String(), `{"last_extraction_error":"",`))
}

func TestCaptureExtractionDuration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return start.Add(3 * time.Second) }

	td := &TelemetryData{}
	captureExtractionDuration(td, start)
	assert.Equal(t, 3*time.Second, td.ExtractionDuration)
}

func TestCaptureInputSize(t *testing.T) {
	pr := NewProgressReader(strings.NewReader("12345"), nil)
	_, _ = pr.Read(make([]byte, 3))

	td := &TelemetryData{}
	captureInputSize(td, pr)
	assert.Equal(t, int64(3), td.InputSize)
}

func TestCaptureError(t *testing.T) {
	td := &TelemetryData{}
	assert.NoError(t, captureError(td, nil))
	assert.Zero(t, td.ExtractionErrors)

	first := fmt.Errorf("first")
	second := fmt.Errorf("second")
	assert.Equal(t, first, captureError(td, first))
	assert.Equal(t, second, captureError(td, second))
	assert.Equal(t, int64(2), td.ExtractionErrors)
	assert.Equal(t, second, td.LastExtractionError)
}
