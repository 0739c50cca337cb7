package pagestage

import "errors"

// BufferChain is the ordered sequence of staging buffers holding one
// collection operation's captured input. Buffers are appended as
// capacity is needed, filled in append order, and drained in the same
// order. The chain is owned by a single collector for the duration of
// one operation; no locking is required.
type BufferChain struct {
	bufs  []*StagingBuffer
	pages int
}

func newChain(pages int) *BufferChain {
	return &BufferChain{pages: pages}
}

// bufferCapacity is the capacity of each buffer in the chain, in bytes.
func (c *BufferChain) bufferCapacity() int64 {
	return int64(c.pages) * int64(pageSize())
}

// grow allocates one more staging buffer and appends it to the chain.
func (c *BufferChain) grow() (*StagingBuffer, error) {
	b, err := allocateBuffer(c.pages)
	if err != nil {
		return nil, err
	}
	c.bufs = append(c.bufs, b)
	return b, nil
}

// Len returns the number of buffers in the chain.
func (c *BufferChain) Len() int { return len(c.bufs) }

// Filled returns the total bytes accepted across the chain.
func (c *BufferChain) Filled() int64 {
	var n int64
	for _, b := range c.bufs {
		n += b.fill
	}
	return n
}

// drainTo drains every buffer to dst in fill order.
func (c *BufferChain) drainTo(m *mover, dst endpoint) (int64, error) {
	var total int64
	for _, b := range c.bufs {
		n, err := b.drainTo(m, dst)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// release releases every buffer exactly once. All buffers are released
// even when some fail, and every failure is reported in the joined
// error. After release the chain is empty and must not be reused.
func (c *BufferChain) release() error {
	var errs []error
	for _, b := range c.bufs {
		if err := b.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	c.bufs = nil
	return errors.Join(errs...)
}
