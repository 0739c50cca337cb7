package pagestage

import (
	"errors"
	"fmt"
	"os/exec"
)

// Kind classifies a collection failure. Every error returned by this
// package is a *Error carrying exactly one Kind, so callers can map
// failures to exit statuses without string matching.
type Kind uint8

const (
	// KindAllocation covers staging-buffer provisioning failures:
	// backing-storage creation, capacity reservation, or mapping.
	KindAllocation Kind = iota + 1

	// KindTransfer covers unrecoverable zero-copy primitive failures.
	// Partial transfers and transient interruptions are retried and
	// never surface with this kind.
	KindTransfer

	// KindShortCapture means end-of-stream arrived before the number of
	// bytes the size probe promised. No primitive call itself failed.
	KindShortCapture

	// KindRelease covers cleanup failures while unmapping or closing a
	// staging buffer. Release failures are logged by the collector and
	// never mask the outcome of the main operation.
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindAllocation:
		return "allocation failure"
	case KindTransfer:
		return "transfer failure"
	case KindShortCapture:
		return "short capture"
	case KindRelease:
		return "release failure"
	default:
		return "failure"
	}
}

// Distinct allocation and capture conditions, usable with errors.Is.
var (
	// ErrBackingCreate: the anonymous backing storage could not be created.
	ErrBackingCreate = errors.New("backing storage create")

	// ErrReserve: the backing storage exists but its capacity could not
	// be reserved (insufficient resources).
	ErrReserve = errors.New("backing storage reserve")

	// ErrMap: the reserved backing storage could not be memory-mapped.
	ErrMap = errors.New("backing storage map")

	// ErrShortCapture: the input ended before the probed size was reached.
	ErrShortCapture = errors.New("input ended before the promised size")

	// ErrUnsupported: kernel-backed staging buffers are not available on
	// this platform.
	ErrUnsupported = errors.New("zero-copy staging not supported on this platform")
)

// Error is a collection failure tied to the stage that produced it.
type Error struct {
	Kind  Kind
	Stage string // "memfd_create", "fallocate", "mmap", "fill", "drain", "release", ...
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pagestage: %s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Process exit statuses. The mapping is stable: scripts may rely on it.
const (
	ExitOK           = 0 // success
	ExitFailure      = 1 // generic failure (usage errors included)
	ExitAllocation   = 2 // staging-buffer allocation failed
	ExitTransfer     = 3 // zero-copy transfer failed
	ExitShortCapture = 4 // input ended before the probed size
)

// ExitCode maps err to the process exit status for its failure class.
// A hand-off child that exited non-zero passes its own status through.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		return ee.ExitCode()
	}
	var ce *Error
	if !errors.As(err, &ce) {
		return ExitFailure
	}
	switch ce.Kind {
	case KindAllocation:
		return ExitAllocation
	case KindTransfer:
		return ExitTransfer
	case KindShortCapture:
		return ExitShortCapture
	default:
		return ExitFailure
	}
}
