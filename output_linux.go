//go:build linux
// +build linux

package pagestage

import (
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// presizeOutput sets a regular-file destination's length to the number
// of bytes about to be drained, dropping any stale tail left by a
// previous, longer content. Non-regular destinations and append-mode
// files (where the drain lands after the existing content, not at
// offset zero) are left alone. Best effort: the drain itself does not
// depend on it.
func presizeOutput(out *os.File, total int64) {
	fi, err := out.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return
	}
	flags, err := unix.FcntlInt(out.Fd(), unix.F_GETFL, 0)
	if err != nil || flags&unix.O_APPEND != 0 {
		return
	}
	if err := out.Truncate(total); err != nil {
		log.Debug().Err(err).Int64("total", total).Msg("presizing output failed")
	}
}
