//go:build linux
// +build linux

package pagestage

import (
	"golang.org/x/sys/unix"
)

// rawSplice wraps splice(2) for Linux. A nil offset means the
// descriptor's own cursor is used and advanced; a non-nil offset is
// advanced by the kernel in place. Zero bytes moved with a nil error
// means the source is exhausted.
func rawSplice(rfd int, roff *int64, wfd int, woff *int64, max int) (int64, error) {
	return unix.Splice(rfd, roff, wfd, woff, max, unix.SPLICE_F_MOVE)
}
