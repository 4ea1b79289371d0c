package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// storeFile reports whether name is a file pebble creates in a store
// directory.
func storeFile(name string) bool {
	switch name {
	case "CURRENT", "LOCK":
		return true
	}
	for _, prefix := range []string{"MANIFEST-", "OPTIONS-", "marker.", "temporary."} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, suffix := range []string{".log", ".sst", ".dbtmp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// isStore reports whether names holds a store's metadata.
func isStore(names []string) bool {
	for _, name := range names {
		if name == "CURRENT" || strings.HasPrefix(name, "MANIFEST-") ||
			strings.HasPrefix(name, "marker.manifest.") {
			return true
		}
	}
	return false
}

// Destroy removes the files of the store at path, and the directory itself
// once it is empty. Other files are left in place. A path that does not
// exist is already destroyed; a directory without store metadata is refused
// with ErrNotStore. The store must not be open.
func Destroy(path string, opts *Options) error {
	fs := opts.fs()
	names, err := fs.List(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !isStore(names) {
		return fmt.Errorf("%w: %s", ErrNotStore, path)
	}

	kept := 0
	for _, name := range names {
		if !storeFile(name) {
			kept++
			continue
		}
		if err := fs.Remove(fs.PathJoin(path, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if kept == 0 {
		if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	Logger().Debug("store destroyed", zap.String("path", path), zap.Int("kept", kept))
	return nil
}
