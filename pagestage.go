// Package pagestage relays an input byte stream to an output sink
// through page-aligned, anonymous, kernel-backed staging buffers,
// using the Linux splice(2) zero-copy primitive instead of userspace
// buffer copies.
//
// A collection operation probes the input's size up front. When the
// size is known, enough buffers for the whole input are allocated
// before the first byte moves; when it is not, buffers are appended on
// demand until end-of-stream. Either way the captured bytes are then
// drained to the output in fill order, and every buffer is released
// exactly once on every exit path.
//
// splice(2) only joins endpoint pairings where at least one side is a
// pipe, so transfers walk a strategy ladder: direct splice, splice
// staged through an intermediate pipe, and finally a documented
// degraded mode that copies through the buffer's mapped view. Partial
// transfers are normal operation and are re-issued on bytes remaining;
// transient interruptions are retried transparently.
//
// CollectExec hands the capture to a child process instead of draining
// it to an output stream.
//
// Platform support:
//   - Collection: Linux (memfd_create, splice)
//   - Other platforms compile but report an unsupported allocation
//
// Buffers are ephemeral: nothing is persisted beyond the process.
package pagestage

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// DefaultPagesPerBuffer is the staging-buffer capacity, in pages, used
// when Options does not override it.
const DefaultPagesPerBuffer = 8

// Options configures one collection operation.
type Options struct {
	// PagesPerBuffer is each staging buffer's capacity in pages.
	// Zero selects DefaultPagesPerBuffer; negative values are rejected.
	PagesPerBuffer int
}

// Result reports what one collection operation observed and moved.
type Result struct {
	Hint      SizeHint
	Collected int64 // bytes accepted from the input
	Drained   int64 // bytes written to the output
	Buffers   int   // staging buffers allocated
}

// Collect captures all of in into a chain of staging buffers and then
// drains it to out. It blocks until the input is exhausted and the
// capture has been written, and returns a *Error on failure. Buffers
// are always released before Collect returns; release failures are
// logged and never mask the operation's outcome.
//
// When out is a regular file its length is set to the captured total
// before draining, so a longer previous file content cannot leave a
// stale tail.
func Collect(in, out *os.File, opts Options) (Result, error) {
	if in == nil || out == nil {
		return Result{}, errors.New("pagestage: nil input or output")
	}
	c, err := newCollector(in, opts)
	if err != nil {
		return Result{}, err
	}
	defer c.cleanup()

	if err := c.capture(); err != nil {
		return c.res, err
	}
	presizeOutput(out, c.res.Collected)

	n, err := c.chain.drainTo(&c.drain, endpoint{fd: int(out.Fd())})
	c.res.Drained = n
	if err != nil {
		return c.res, &Error{Kind: KindTransfer, Stage: "drain", Err: err}
	}
	return c.res, nil
}

// collector drives one collection operation. It owns the chain and the
// per-phase movers; everything runs on the calling goroutine.
type collector struct {
	in    *os.File
	chain *BufferChain
	fill  mover
	drain mover
	res   Result
}

func newCollector(in *os.File, opts Options) (*collector, error) {
	pages := opts.PagesPerBuffer
	if pages == 0 {
		pages = DefaultPagesPerBuffer
	}
	if pages < 0 {
		return nil, &Error{Kind: KindAllocation, Stage: "options",
			Err: fmt.Errorf("pages per buffer must be positive, got %d", pages)}
	}
	return &collector{in: in, chain: newChain(pages)}, nil
}

// cleanup releases the chain and the per-phase pipes. Failures here are
// logged, never returned: they must not mask the operation's outcome.
func (c *collector) cleanup() {
	if err := c.chain.release(); err != nil {
		log.Error().Err(err).Msg("staging buffer release failed")
	}
	if err := c.fill.Close(); err != nil {
		log.Error().Err(err).Msg("closing fill pipe failed")
	}
	if err := c.drain.Close(); err != nil {
		log.Error().Err(err).Msg("closing drain pipe failed")
	}
}

// capture probes the input and runs the sized or unsized path until the
// whole input sits in the chain.
func (c *collector) capture() error {
	hint := ProbeSize(c.in)
	c.res.Hint = hint

	var err error
	if hint.Known {
		log.Debug().Int64("total", hint.Total).Msg("input size known, sized path")
		err = c.collectSized(hint.Total)
	} else {
		log.Debug().Msg("input size unknown, unsized path")
		err = c.collectUnsized()
	}
	c.res.Buffers = c.chain.Len()
	if err != nil {
		return err
	}
	log.Debug().
		Int64("collected", c.res.Collected).
		Int64("staged", c.chain.Filled()).
		Int("buffers", c.res.Buffers).
		Msg("capture complete")
	return nil
}

// collectSized allocates the whole chain up front (always at least one
// full-capacity buffer, even when total is smaller) and fills it in
// order. End-of-stream before total bytes have been accepted is a short
// capture: the operation aborts without draining.
func (c *collector) collectSized(total int64) error {
	capacity := c.chain.bufferCapacity()
	need := total / capacity
	if total%capacity != 0 {
		need++
	}
	if need < 1 {
		need = 1
	}
	for i := int64(0); i < need; i++ {
		if _, err := c.chain.grow(); err != nil {
			return err
		}
	}

	src := endpoint{fd: int(c.in.Fd())}
	remaining := total
	for _, b := range c.chain.bufs {
		if remaining == 0 {
			break
		}
		moved, eof, err := b.fillFrom(&c.fill, src, remaining)
		c.res.Collected += moved
		remaining -= moved
		if err != nil {
			return &Error{Kind: KindTransfer, Stage: "fill", Err: err}
		}
		if eof && remaining > 0 {
			return &Error{Kind: KindShortCapture, Stage: "fill",
				Err: fmt.Errorf("collected %d of %d promised bytes: %w",
					total-remaining, total, ErrShortCapture)}
		}
	}
	return nil
}

// collectUnsized starts with one buffer and appends further buffers of
// the same capacity on demand until end-of-stream. No byte accepted
// from the source is ever discarded; a trailing buffer that saw
// end-of-stream before its first byte simply drains nothing.
func (c *collector) collectUnsized() error {
	b, err := c.chain.grow()
	if err != nil {
		return err
	}

	src := endpoint{fd: int(c.in.Fd())}
	for {
		moved, eof, err := b.fillFrom(&c.fill, src, b.Cap()-b.Filled())
		c.res.Collected += moved
		if err != nil {
			return &Error{Kind: KindTransfer, Stage: "fill", Err: err}
		}
		if eof {
			return nil
		}
		b, err = c.chain.grow()
		if err != nil {
			return err
		}
	}
}
