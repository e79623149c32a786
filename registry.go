// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"context"
	"sort"
)

// unpackFunc unpacks the archive read from src into dst. size is the size of
// the archive file or -1 if unknown.
type unpackFunc func(ctx context.Context, t Target, dst string, src *ProgressReader, size int64, f ArchiveFormat, cfg *Config, td *TelemetryData) error

// unpackers holds the container implementations that are part of this build.
// Registration happens during package initialization only, afterwards the map
// is read-only.
var unpackers = map[ArchiveFormat]unpackFunc{}

// registerUnpacker makes the format f available. It is called from init
// functions of the container implementations.
func registerUnpacker(f ArchiveFormat, u unpackFunc) {
	if !f.Valid() {
		panic("unarchive: register unpacker for invalid format")
	}
	if u == nil {
		panic("unarchive: register nil unpacker for " + f.Name())
	}
	if _, dup := unpackers[f]; dup {
		panic("unarchive: register unpacker twice for " + f.Name())
	}
	unpackers[f] = u
}

// lookupUnpacker returns the unpacker for f.
func lookupUnpacker(f ArchiveFormat) (unpackFunc, bool) {
	u, ok := unpackers[f]
	return u, ok
}

// IsSupported returns true if the format can be extracted by this build.
// Optional capabilities like 7z can be removed with build tags.
func IsSupported(f ArchiveFormat) bool {
	_, ok := unpackers[f]
	return ok
}

// SupportedFormats returns all formats this build can extract in ascending
// order.
func SupportedFormats() []ArchiveFormat {
	out := make([]ArchiveFormat, 0, len(unpackers))
	for f := range unpackers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
