// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unarchive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// scratchDirPattern is the os.MkdirTemp pattern of scratch directories.
const scratchDirPattern = ".unarchive-*"

// reasonCrossDevice is reported if a rename fails because scratch directory
// and destination live on different filesystems.
const reasonCrossDevice = "scratch directory and destination are on different filesystems"

// createScratchDir creates the scratch directory for root stripping. Without a
// configured parent it is created inside destination, so that the following
// renames stay on one filesystem.
func createScratchDir(destination string, cfg *Config) (string, error) {
	parent := cfg.ScratchDir()
	if len(parent) == 0 {
		parent = destination
	}
	dir, err := os.MkdirTemp(parent, scratchDirPattern)
	if err != nil {
		return "", newTempDirError(err)
	}
	return dir, nil
}

// normalizeRoot moves the unpacked contents of scratch into destination. If
// scratch holds exactly one entry and it is a directory, the children of that
// directory are moved instead, which strips the enclosing directory. It
// returns whether the enclosing directory was stripped.
//
// Entries are renamed one at a time; a failure leaves the entries moved so far
// in destination.
func normalizeRoot(scratch string, destination string, cfg *Config) (bool, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return false, newIoError(err)
	}
	if len(entries) == 0 {
		return false, &Error{Kind: KindEmptyArchive}
	}

	// a symlink to a directory is not a directory here
	root := scratch
	stripped := false
	if len(entries) == 1 && entries[0].IsDir() {
		root = filepath.Join(scratch, entries[0].Name())
		stripped = true

		// moving children out requires write access to the restored root
		if info, err := entries[0].Info(); err == nil && info.Mode().Perm()&0200 == 0 {
			if err := os.Chmod(root, info.Mode().Perm()|0700); err != nil {
				return false, newIoError(err)
			}
		}

		if entries, err = os.ReadDir(root); err != nil {
			return false, newIoError(err)
		}
		if err := checkStrippedSymlinks(root); err != nil {
			return false, err
		}
	}

	cfg.Logger().Debug("normalize root", "root", root, "destination", destination, "stripped", stripped)

	for _, e := range entries {
		from := filepath.Join(root, e.Name())
		to := filepath.Join(destination, e.Name())

		// the scratch directory itself may live in destination
		if to == scratch {
			continue
		}

		if err := mergeEntry(from, to, e, cfg); err != nil {
			return stripped, err
		}
	}
	return stripped, nil
}

// checkStrippedSymlinks rejects symlinks below root whose target leaves root.
// Link targets were checked against the scratch directory during unpacking,
// one level above root, so a target like "../x" is only caught here.
func checkStrippedSymlinks(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return newRootStrippingError(path, err.Error(), err)
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		linkTarget, err := os.Readlink(path)
		if err != nil {
			return newRootStrippingError(path, err.Error(), err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return newRootStrippingError(path, err.Error(), err)
		}
		resolved := filepath.Join(filepath.Dir(rel), linkTarget)
		if filepath.IsAbs(linkTarget) || !filepath.IsLocal(resolved) {
			err := fmt.Errorf("symlink %s -> %s leaves the stripped root", filepath.ToSlash(rel), linkTarget)
			return newRootStrippingError(path, err.Error(), err)
		}
		return nil
	})
}

// mergeEntry moves from to to. An existing directory at to is merged with the
// directory from, any other existing entry is replaced if overwrite is enabled.
func mergeEntry(from string, to string, e fs.DirEntry, cfg *Config) error {
	existing, err := os.Lstat(to)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return newRootStrippingError(from, err.Error(), err)
	case e.IsDir() && existing.IsDir():
		return mergeDir(from, to, e, cfg)
	case !cfg.Overwrite():
		err := fmt.Errorf("destination already contains %s", filepath.Base(to))
		return newRootStrippingError(from, err.Error(), err)
	default:
		if err := os.RemoveAll(to); err != nil {
			return newRootStrippingError(from, err.Error(), err)
		}
	}

	if err := moveEntry(from, to, e); err != nil {
		reason := err.Error()
		if isCrossDevice(err) {
			reason = reasonCrossDevice
		}
		return newRootStrippingError(from, reason, err)
	}
	return nil
}

// mergeDir moves the children of from into the existing directory to and
// removes from. The mode of from is applied to to afterwards, like unpacking
// into an existing directory does.
func mergeDir(from string, to string, e fs.DirEntry, cfg *Config) error {
	info, err := e.Info()
	if err != nil {
		return newRootStrippingError(from, err.Error(), err)
	}
	perm := info.Mode().Perm()
	if perm&0700 != 0700 {
		if err := os.Chmod(from, perm|0700); err != nil {
			return newRootStrippingError(from, err.Error(), err)
		}
	}

	children, err := os.ReadDir(from)
	if err != nil {
		return newRootStrippingError(from, err.Error(), err)
	}
	for _, c := range children {
		if err := mergeEntry(filepath.Join(from, c.Name()), filepath.Join(to, c.Name()), c, cfg); err != nil {
			return err
		}
	}

	if err := os.Remove(from); err != nil {
		return newRootStrippingError(from, err.Error(), err)
	}
	if err := os.Chmod(to, perm); err != nil {
		return newRootStrippingError(to, err.Error(), err)
	}
	return nil
}

// moveEntry renames from to to. Moving a directory to a new parent rewrites
// its ".." entry, so a read-only directory is made writable for the rename
// and gets its mode back afterwards.
func moveEntry(from string, to string, e fs.DirEntry) error {
	if !e.IsDir() {
		return os.Rename(from, to)
	}

	info, err := e.Info()
	if err != nil {
		return err
	}
	perm := info.Mode().Perm()
	if perm&0200 != 0 {
		return os.Rename(from, to)
	}

	if err := os.Chmod(from, perm|0200); err != nil {
		return err
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	return os.Chmod(to, perm)
}
