//go:build linux
// +build linux

package pagestage

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// allocateBuffer reserves pages*pageSize() bytes of anonymous,
// kernel-backed storage: a memfd for the splice endpoint, fallocate to
// reserve the capacity, and a shared mapping for the memory view. On
// any failure every partially-acquired resource is released before the
// error is returned.
func allocateBuffer(pages int) (*StagingBuffer, error) {
	if pages <= 0 {
		return nil, &Error{Kind: KindAllocation, Stage: "allocate",
			Err: fmt.Errorf("pages per buffer must be positive, got %d", pages)}
	}
	size := int64(pages) * int64(pageSize())

	fd, err := unix.MemfdCreate("pagestage-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, allocFailed("memfd_create", ErrBackingCreate, err)
	}
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		unix.Close(fd)
		return nil, allocFailed("fallocate", ErrReserve, err)
	}
	view, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, allocFailed("mmap", ErrMap, err)
	}
	// Best effort: the buffer will be touched shortly, and identical
	// pages across buffers may be merged.
	_ = adviseBuffer(view)

	return &StagingBuffer{fd: fd, view: view, capacity: size}, nil
}

// adviseBuffer hints the kernel about the mapping's access pattern.
// madvise(2) takes exactly one advice value per call, never a bitmask,
// so each hint is issued separately.
func adviseBuffer(view []byte) error {
	if err := unix.Madvise(view, unix.MADV_MERGEABLE); err != nil {
		return err
	}
	return unix.Madvise(view, unix.MADV_WILLNEED)
}

// Release unmaps the view and closes the backing descriptor. It must be
// called exactly once per successfully allocated buffer; a second call
// panics. Both teardown steps always run; when both fail, both failures
// are reported.
func (b *StagingBuffer) Release() error {
	b.checkReleased()
	b.released = true

	var errs []error
	if err := unix.Munmap(b.view); err != nil {
		errs = append(errs, &Error{Kind: KindRelease, Stage: "munmap", Err: err})
	}
	b.view = nil
	if err := unix.Close(b.fd); err != nil {
		errs = append(errs, &Error{Kind: KindRelease, Stage: "close", Err: err})
	}
	b.fd = -1
	return errors.Join(errs...)
}

func allocFailed(stage string, kind, err error) error {
	return &Error{Kind: KindAllocation, Stage: stage, Err: fmt.Errorf("%w: %w", kind, err)}
}
