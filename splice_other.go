//go:build !linux
// +build !linux

package pagestage

import "syscall"

// rawSplice stub for non-Linux platforms.
// Always returns ENOTSUP to trigger the userspace fallback.
func rawSplice(rfd int, roff *int64, wfd int, woff *int64, max int) (int64, error) {
	return 0, syscall.ENOTSUP
}
