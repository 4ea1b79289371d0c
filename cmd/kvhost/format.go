package main

import (
	"encoding/hex"
	"unicode"
	"unicode/utf8"

	"github.com/wippyai/kvhost/binding"
	"github.com/wippyai/kvhost/store"
)

// display renders b as text when it is printable UTF-8, otherwise as hex
// prefixed with "0x".
func display(b []byte) string {
	if utf8.Valid(b) {
		printable := true
		for _, r := range string(b) {
			if !unicode.IsPrint(r) {
				printable = false
				break
			}
		}
		if printable {
			return string(b)
		}
	}
	return "0x" + hex.EncodeToString(b)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func registryOptions(opts *store.Options, maxHandles int) *binding.Options {
	return &binding.Options{Store: opts, MaxHandles: maxHandles}
}
