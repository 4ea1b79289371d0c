package store

import (
	"github.com/wippyai/kvhost/errors"
)

func checkKey(phase errors.Phase, key []byte) error {
	if len(key) == 0 {
		return errors.InvalidInput(phase, "key must not be empty")
	}
	return nil
}

func checkValue(phase errors.Phase, value []byte) error {
	if value == nil {
		return errors.InvalidInput(phase, "value must not be nil")
	}
	return nil
}

func checkPath(phase errors.Phase, path string) error {
	if path == "" {
		return errors.InvalidInput(phase, "path must not be empty")
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
