//go:build !linux
// +build !linux

package pagestage

import (
	"errors"
	"os"
)

// HandoffPlaceholder in a hand-off command's arguments is replaced by a
// path under which the child can open the captured bytes.
const HandoffPlaceholder = "{}"

// CollectExec reports that kernel-backed staging is unavailable here.
func CollectExec(in *os.File, argv []string, opts Options) (Result, error) {
	if in == nil {
		return Result{}, errors.New("pagestage: nil input")
	}
	if len(argv) == 0 {
		return Result{}, errors.New("pagestage: empty hand-off command")
	}
	return Result{}, &Error{Kind: KindAllocation, Stage: "handoff", Err: ErrUnsupported}
}
