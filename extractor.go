// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Extractor extracts archive files into directories. It holds an immutable
// [Config] and no other state, so one Extractor can serve concurrent calls
// for different destinations.
type Extractor struct {
	cfg    *Config
	target Target
}

// NewExtractor returns an Extractor configured by opts.
func NewExtractor(opts ...ConfigOption) *Extractor {
	return NewExtractorWithConfig(NewConfig(opts...))
}

// NewExtractorWithConfig returns an Extractor using cfg. A nil cfg means the
// default configuration. cfg must not be modified afterwards.
func NewExtractorWithConfig(cfg *Config) *Extractor {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Extractor{cfg: cfg, target: NewTargetDisk()}
}

// Config returns the configuration of the Extractor.
func (e *Extractor) Config() *Config {
	return e.cfg
}

// Extract extracts the archive at archivePath into destination, which is
// created if it does not exist.
//
// The format is taken from the configuration or detected from the file name.
// Errors are of type [*Error]. Files written before a failure stay on disk.
func (e *Extractor) Extract(ctx context.Context, archivePath string, destination string) error {
	return e.extract(ctx, archivePath, destination, e.cfg)
}

// extract runs one extraction with cfg, which may differ from e.cfg in the format.
func (e *Extractor) extract(ctx context.Context, archivePath string, destination string, cfg *Config) error {
	td := &TelemetryData{}
	defer cfg.TelemetryHook()(ctx, td)
	defer captureExtractionDuration(td, now())

	err := e.run(ctx, archivePath, destination, cfg, td)
	if err != nil {
		captureError(td, err)
		cfg.Logger().Error("extraction failed", "archive", archivePath, "error", err)
	}
	return err
}

// run is the extraction sequence of one call.
func (e *Extractor) run(ctx context.Context, archivePath string, destination string, cfg *Config, td *TelemetryData) error {
	format, ok := cfg.Format()
	if !ok {
		format, ok = DetectFormatFromPath(archivePath)
	}
	if !ok || !IsSupported(format) {
		return newUnsupportedFormatError(filepath.Base(archivePath))
	}
	td.ArchiveFormat = format.Name()

	unpack, _ := lookupUnpacker(format)

	if err := os.MkdirAll(destination, cfg.CustomCreateDirMode()); err != nil {
		return newIoError(err)
	}

	// best effort, zip and 7z determine the size by seeking if this fails
	size := int64(-1)
	if fi, err := os.Stat(archivePath); err == nil && fi.Mode().IsRegular() {
		size = fi.Size()
	}
	reporter := cfg.ProgressReporter()
	reporter.OnStart(size)

	f, err := os.Open(archivePath)
	if err != nil {
		return newIoError(err)
	}
	defer f.Close()

	src := NewProgressReader(f, reporter)
	defer captureInputSize(td, src)

	cfg.Logger().Info("extracting archive", "archive", archivePath, "format", format.Name(), "destination", destination)

	if !cfg.StripRootDir() {
		if err := unpack(ctx, e.target, destination, src, size, format, cfg, td); err != nil {
			return wrapUnpackError(format, err)
		}
		reporter.OnFinish(finishMessage(format))
		return nil
	}

	scratch, err := createScratchDir(destination, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			cfg.Logger().Warn("cannot remove scratch directory", "path", scratch, "error", err)
		}
	}()

	if err := unpack(ctx, e.target, scratch, src, size, format, cfg, td); err != nil {
		return wrapUnpackError(format, err)
	}

	stripped, err := normalizeRoot(scratch, destination, cfg)
	td.RootStripped = stripped
	if err != nil {
		return err
	}

	reporter.OnFinish(finishMessage(format))
	return nil
}

// wrapUnpackError turns a container failure into the extraction error of the
// format family. Errors of the taxonomy pass through.
func wrapUnpackError(f ArchiveFormat, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newExtractionError(f, err)
}

// finishMessage is the message passed to ProgressReporter.OnFinish.
func finishMessage(f ArchiveFormat) string {
	return fmt.Sprintf("Extracted %s archive", f.Name())
}
