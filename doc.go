// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package unarchive extracts archive files into directories.
//
// Supported are tar archives (plain, gzip, bzip2, xz, lzma and zstd
// compressed), zip and, unless built with the tag nosevenzip, 7z. The format
// is detected from the file name or set with [WithFormat].
//
// By default a single enclosing top-level directory is stripped, so that
// "project-1.0/src/main.go" is extracted as "src/main.go". Progress is
// reported in bytes read from the archive file through a [ProgressReporter].
//
// An [Extractor] runs on the calling goroutine. An [AsyncExtractor] runs
// extractions on a bounded set of worker goroutines.
//
// Configuration is done using [ConfigOption] functions passed to
// [NewExtractor]. [TelemetryData] is captured for every extraction and
// handed to the [TelemetryHook].
package unarchive
