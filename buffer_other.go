//go:build !linux
// +build !linux

package pagestage

// allocateBuffer stub for platforms without memfd-backed staging.
func allocateBuffer(pages int) (*StagingBuffer, error) {
	return nil, &Error{Kind: KindAllocation, Stage: "allocate", Err: ErrUnsupported}
}

// Release stub; allocateBuffer never succeeds here, so this only guards
// against double release of a zero-value buffer.
func (b *StagingBuffer) Release() error {
	b.checkReleased()
	b.released = true
	return nil
}
