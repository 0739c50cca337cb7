//go:build !linux
// +build !linux

package pagestage

import "os"

// presizeOutput is a no-op where collection itself is unsupported.
func presizeOutput(out *os.File, total int64) {}
