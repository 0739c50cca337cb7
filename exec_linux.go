//go:build linux
// +build linux

package pagestage

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// HandoffPlaceholder in a hand-off command's arguments is replaced by a
// path under which the child can open the captured bytes.
const HandoffPlaceholder = "{}"

// CollectExec captures all of in exactly as Collect does, then hands
// the capture to a child process instead of draining it to an output
// stream. The capture is consolidated into a single anonymous file;
// every argv element equal to HandoffPlaceholder is replaced by a
// /dev/fd path to it, and when no placeholder occurs the child reads it
// as stdin. The child inherits stdout and stderr, and CollectExec
// blocks until it exits; a child that exits non-zero surfaces through
// ExitCode as that status.
func CollectExec(in *os.File, argv []string, opts Options) (Result, error) {
	if in == nil {
		return Result{}, errors.New("pagestage: nil input")
	}
	if len(argv) == 0 {
		return Result{}, errors.New("pagestage: empty hand-off command")
	}
	c, err := newCollector(in, opts)
	if err != nil {
		return Result{}, err
	}
	defer c.cleanup()

	if err := c.capture(); err != nil {
		return c.res, err
	}
	return c.res, c.handoff(argv)
}

// handoff drains the chain into one anonymous file sized exactly to the
// capture, rewinds it, and runs argv against it.
func (c *collector) handoff(argv []string) error {
	fd, err := unix.MemfdCreate("pagestage-handoff", unix.MFD_CLOEXEC)
	if err != nil {
		return allocFailed("memfd_create", ErrBackingCreate, err)
	}
	f := os.NewFile(uintptr(fd), "pagestage-handoff")
	defer f.Close()

	n, err := c.chain.drainTo(&c.drain, endpoint{fd: fd})
	c.res.Drained = n
	if err != nil {
		return &Error{Kind: KindTransfer, Stage: "drain", Err: err}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return &Error{Kind: KindTransfer, Stage: "handoff", Err: err}
	}

	// The capture is passed as fd 3; /dev/fd/3 reopens it from offset
	// zero in the child.
	placeholder := false
	args := make([]string, 0, len(argv)-1)
	for _, a := range argv[1:] {
		if a == HandoffPlaceholder {
			a = "/dev/fd/3"
			placeholder = true
		}
		args = append(args, a)
	}

	cmd := exec.Command(argv[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if placeholder {
		cmd.Stdin = os.Stdin
		cmd.ExtraFiles = []*os.File{f}
	} else {
		cmd.Stdin = f
	}

	log.Debug().Str("command", argv[0]).Bool("placeholder", placeholder).
		Int64("bytes", n).Msg("handing capture to child")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hand-off command %q: %w", argv[0], err)
	}
	return nil
}
