//go:build !debug

// Package check holds invariant assertions. Release builds compile them out;
// callers that must also fail in release builds return an error next to the
// assertion.
package check

// Assert does nothing in release builds.
func Assert(_ bool, _ string) {}

// Assertf does nothing in release builds.
func Assertf(_ bool, _ string, _ ...any) {}
