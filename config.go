// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
)

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config provides a configuration struct and options to adjust the configuration.
//
// A Config is assembled with [NewConfig] and must not be modified once it is
// handed to an [Extractor]. It is shared read-only between the calling
// goroutine and the worker goroutines of an [AsyncExtractor].
type Config struct {
	// customCreateDirMode is the file mode for created directories, that are not defined in the archive (respecting umask)
	customCreateDirMode fs.FileMode

	// denySymlinkExtraction offers the option to enable/disable the extraction of symlinks
	denySymlinkExtraction bool

	// dropFileAttributes is a flag drop the file attributes of the extracted files
	dropFileAttributes bool

	// format overrides the format detection if set
	format ArchiveFormat

	// logger stream for extraction
	logger logger

	// maxExtractionSize is the maximum size over all extracted files.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxFiles is the maximum of files (including folder and symlinks) in an archive.
	// Set value to -1 to disable the check.
	maxFiles int64

	// overwrite defines if existing files in the destination are replaced
	overwrite bool

	// progressReporter receives start, progress and finish signals
	progressReporter ProgressReporter

	// scratchDir is the parent of the scratch directory used for root stripping.
	// If empty, the scratch directory is created inside the destination.
	scratchDir string

	// stripRootDir strips a single enclosing top-level directory
	stripRootDir bool

	// telemetryHook is a function to consume telemetry data after finished extraction
	telemetryHook TelemetryHook
}

const (
	defaultCustomCreateDirMode   = 0755  // default directory permissions rwxr-xr-x
	defaultDenySymlinkExtraction = false // allow symlink extraction
	defaultDropFileAttributes    = false // restore file attributes from archive
	defaultMaxFiles              = -1    // no limit
	defaultMaxExtractionSize     = -1    // no limit
	defaultOverwrite             = true  // replace existing files
	defaultScratchDir            = ""    // scratch directory inside the destination
	defaultStripRootDir          = true  // strip github style root directories
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, d *TelemetryData) {
		// noop
	}
)

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {

	// setup default values
	config := &Config{
		customCreateDirMode:   defaultCustomCreateDirMode,
		denySymlinkExtraction: defaultDenySymlinkExtraction,
		dropFileAttributes:    defaultDropFileAttributes,
		format:                FormatUnknown,
		logger:                defaultLogger,
		maxExtractionSize:     defaultMaxExtractionSize,
		maxFiles:              defaultMaxFiles,
		overwrite:             defaultOverwrite,
		progressReporter:      NoopProgressReporter{},
		scratchDir:            defaultScratchDir,
		stripRootDir:          defaultStripRootDir,
		telemetryHook:         defaultTelemetryHook,
	}

	// Loop through each option
	for _, opt := range opts {
		opt(config)
	}

	return config
}

// CheckMaxFiles checks if counter exceeds the configured maximum. If the maximum is exceeded,
// a [ErrMaxFilesExceeded] error is returned.
func (c *Config) CheckMaxFiles(counter int64) error {

	// check if disabled
	if c.MaxFiles() == -1 {
		return nil
	}

	// check value
	if counter > c.MaxFiles() {
		return ErrMaxFilesExceeded
	}
	return nil
}

// CheckExtractionSize checks if fileSize exceeds configured maximum. If the maximum is exceeded,
// a [ErrMaxExtractionSizeExceeded] error is returned.
func (c *Config) CheckExtractionSize(fileSize int64) error {

	// check if disabled
	if c.MaxExtractionSize() == -1 {
		return nil
	}

	// check value
	if fileSize > c.MaxExtractionSize() {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

// CustomCreateDirMode returns the file mode for created directories,
// that are not defined in the archive. (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// DenySymlinkExtraction returns true if symlinks are NOT allowed.
func (c *Config) DenySymlinkExtraction() bool {
	return c.denySymlinkExtraction
}

// DropFileAttributes returns true if the file attributes should be dropped.
func (c *Config) DropFileAttributes() bool {
	return c.dropFileAttributes
}

// Format returns the configured format and true, or [FormatUnknown] and false
// if the format is detected per extraction.
func (c *Config) Format() (ArchiveFormat, bool) {
	return c.format, c.format.Valid()
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxExtractionSize returns the maximum size over all extracted files.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxFiles returns the maximum of files (including folder and symlinks) in an archive.
func (c *Config) MaxFiles() int64 {
	return c.maxFiles
}

// Overwrite returns true if files should be overwritten in the destination.
func (c *Config) Overwrite() bool {
	return c.overwrite
}

// ProgressReporter returns the progress reporter.
func (c *Config) ProgressReporter() ProgressReporter {
	return c.progressReporter
}

// ScratchDir returns the parent directory for scratch directories. An empty
// string means the scratch directory is created inside the destination.
func (c *Config) ScratchDir() string {
	return c.scratchDir
}

// StripRootDir returns true if a single enclosing top-level directory is stripped.
func (c *Config) StripRootDir() bool {
	return c.stripRootDir
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	return c.telemetryHook
}

// clone returns a shallow copy of c.
func (c *Config) clone() *Config {
	cc := *c
	return &cc
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created directories, that are not defined in the archive. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithDenySymlinkExtraction options pattern function to deny symlink extraction.
func WithDenySymlinkExtraction(deny bool) ConfigOption {
	return func(c *Config) {
		c.denySymlinkExtraction = deny
	}
}

// WithDropFileAttributes options pattern function to drop the
// file attributes of the extracted files.
func WithDropFileAttributes(drop bool) ConfigOption {
	return func(c *Config) {
		c.dropFileAttributes = drop
	}
}

// WithFormat options pattern function to set the archive format explicitly,
// bypassing the detection. [FormatUnknown] restores the detection.
func WithFormat(format ArchiveFormat) ConfigOption {
	return func(c *Config) {
		c.format = format
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxExtractionSize options pattern function to set maximum size over all
// extracted files. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxFiles options pattern function to set maximum number of extracted, files, directories
// and symlinks during the extraction. (-1 to disable check)
func WithMaxFiles(maxFiles int64) ConfigOption {
	return func(c *Config) {
		c.maxFiles = maxFiles
	}
}

// WithOverwrite options pattern function specify if files should be overwritten in the destination.
func WithOverwrite(enable bool) ConfigOption {
	return func(c *Config) {
		c.overwrite = enable
	}
}

// WithProgressReporter options pattern function to set a [ProgressReporter].
// The reporter is called from the goroutine that runs the extraction.
func WithProgressReporter(reporter ProgressReporter) ConfigOption {
	return func(c *Config) {
		if reporter == nil {
			reporter = NoopProgressReporter{}
		}
		c.progressReporter = reporter
	}
}

// WithScratchDir options pattern function to set the parent directory of the
// scratch directory used for root stripping. It must be on the same
// filesystem as the destination.
func WithScratchDir(dir string) ConfigOption {
	return func(c *Config) {
		c.scratchDir = dir
	}
}

// WithStripRootDir options pattern function to enable/disable stripping of a
// single enclosing top-level directory.
func WithStripRootDir(strip bool) ConfigOption {
	return func(c *Config) {
		c.stripRootDir = strip
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which is called after extraction.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		if hook == nil {
			hook = defaultTelemetryHook
		}
		c.telemetryHook = hook
	}
}
