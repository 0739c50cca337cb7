package pagestage

// StagingBuffer is one anonymous, kernel-backed staging allocation,
// addressable both as a file descriptor (a splice endpoint) and as a
// mapped read/write memory view. Its capacity is always a whole
// multiple of the page size.
//
// A buffer is created by the chain when more capacity is needed and must
// be released exactly once, on every exit path. Release is not
// idempotent: using or releasing an already-released buffer panics.
type StagingBuffer struct {
	fd       int
	view     []byte
	capacity int64
	fill     int64 // bytes accepted so far, <= capacity
	released bool
}

// Cap returns the buffer's capacity in bytes.
func (b *StagingBuffer) Cap() int64 { return b.capacity }

// Filled returns the number of bytes accepted into the buffer so far.
func (b *StagingBuffer) Filled() int64 { return b.fill }

func (b *StagingBuffer) checkReleased() {
	if b.released {
		panic("pagestage: use of released staging buffer")
	}
}
