package pagestage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// maxTransferChunk caps the bytes requested from a single primitive
// call. A var, not a const, so tests can force partial transfers.
var maxTransferChunk = int64(4 * 1024 * 1024)

// endpoint is one side of a zero-copy transfer: a descriptor and an
// optional explicit offset. A nil offset means the descriptor's own
// cursor is used and advanced.
type endpoint struct {
	fd  int
	off *int64
}

// outcome of a single transfer call. Zero bytes moved with eof set
// means the source is exhausted; it is not an error.
type outcome struct {
	moved int64
	eof   bool
}

type transferMode uint8

const (
	modeProbe  transferMode = iota // pairing not yet classified
	modeDirect                     // splice joins the endpoints directly
	modePipe                       // splice via an intermediate pipe
	modeView                       // degraded: copy through the mapped view
)

// mover executes transfers for one phase (fill or drain). splice(2)
// only joins pairings where at least one endpoint is a pipe, so the
// mover walks a strategy ladder on EINVAL/ENOTSUP: direct splice, then
// splice staged through an intermediate pipe, then a userspace copy
// through the buffer's mapped view. The first strategy that works for
// the pairing is remembered for the rest of the phase.
type mover struct {
	mode  transferMode
	pipeR *os.File
	pipeW *os.File
}

func (m *mover) ensurePipe() error {
	if m.pipeR != nil {
		return nil
	}
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	m.pipeR, m.pipeW = r, w
	return nil
}

func (m *mover) Close() error {
	var first error
	if m.pipeR != nil {
		if err := m.pipeR.Close(); err != nil {
			first = err
		}
		m.pipeR = nil
	}
	if m.pipeW != nil {
		if err := m.pipeW.Close(); err != nil && first == nil {
			first = err
		}
		m.pipeW = nil
	}
	return first
}

// spliceOnce issues one splice call, retrying transparently when
// interrupted. Interruptions never surface to callers.
func spliceOnce(src, dst endpoint, max int64) (outcome, error) {
	if max <= 0 {
		return outcome{}, nil
	}
	for {
		n, err := rawSplice(src.fd, src.off, dst.fd, dst.off, int(max))
		switch {
		case err == nil && n == 0:
			return outcome{eof: true}, nil
		case err == nil:
			return outcome{moved: n}, nil
		case errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN):
			continue
		default:
			return outcome{}, err
		}
	}
}

// unsupportedPairing reports whether err means splice cannot join this
// endpoint pairing at all, as opposed to a genuine transfer failure.
func unsupportedPairing(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP)
}

// fillOnce moves up to max bytes from src into the buffer at its fill
// mark, walking the strategy ladder until one strategy accepts the
// pairing. Once a strategy has worked, its failures are final.
func (m *mover) fillOnce(src endpoint, b *StagingBuffer, max int64) (outcome, error) {
	if m.mode == modeProbe || m.mode == modeDirect {
		off := b.fill
		out, err := spliceOnce(src, endpoint{fd: b.fd, off: &off}, max)
		if err == nil {
			m.mode = modeDirect
			return out, nil
		}
		if m.mode == modeDirect || !unsupportedPairing(err) {
			return outcome{}, err
		}
	}
	if m.mode == modeProbe || m.mode == modePipe {
		out, err := m.fillViaPipe(src, b, max)
		if err == nil {
			m.mode = modePipe
			return out, nil
		}
		if m.mode == modePipe || !unsupportedPairing(err) {
			return outcome{}, err
		}
	}
	return m.fillView(src, b, max)
}

// fillViaPipe stages src through an intermediate pipe: src -> pipe with
// one splice, then pipe -> buffer descriptor at the fill offset.
func (m *mover) fillViaPipe(src endpoint, b *StagingBuffer, max int64) (outcome, error) {
	if err := m.ensurePipe(); err != nil {
		return outcome{}, err
	}
	in, err := spliceOnce(src, endpoint{fd: int(m.pipeW.Fd())}, max)
	if err != nil || in.eof || in.moved == 0 {
		return in, err
	}
	// Bytes are queued in the pipe now; every one of them must reach
	// the buffer. Failures past this point are final and must not look
	// like an unsupported pairing, or the ladder would degrade and
	// strand them.
	var drained int64
	for drained < in.moved {
		off := b.fill + drained
		out, err := spliceOnce(
			endpoint{fd: int(m.pipeR.Fd())},
			endpoint{fd: b.fd, off: &off},
			in.moved-drained,
		)
		if err != nil {
			return outcome{}, fmt.Errorf("draining intermediate pipe: %v", err)
		}
		if out.moved == 0 {
			return outcome{}, io.ErrShortWrite
		}
		drained += out.moved
	}
	return outcome{moved: in.moved}, nil
}

// fillView is the degraded mode: read(2) straight into the mapped view.
func (m *mover) fillView(src endpoint, b *StagingBuffer, max int64) (outcome, error) {
	p := b.view[b.fill : b.fill+max]
	for {
		n, err := syscall.Read(src.fd, p)
		if err == syscall.EINTR || err == syscall.EAGAIN {
			continue
		}
		if err != nil {
			return outcome{}, err
		}
		if n == 0 {
			return outcome{eof: true}, nil
		}
		m.mode = modeView
		return outcome{moved: int64(n)}, nil
	}
}

// drainOnce moves up to max bytes from the buffer (starting at from)
// to dst. The drain ladder never stages through the intermediate pipe:
// when the destination cannot be spliced to, bytes written from the
// mapped view leave nothing stranded in flight.
func (m *mover) drainOnce(b *StagingBuffer, from int64, dst endpoint, max int64) (outcome, error) {
	if m.mode == modeProbe || m.mode == modeDirect {
		off := from
		out, err := spliceOnce(endpoint{fd: b.fd, off: &off}, dst, max)
		if err == nil {
			m.mode = modeDirect
			return out, nil
		}
		if m.mode == modeDirect || !unsupportedPairing(err) {
			return outcome{}, err
		}
	}
	p := b.view[from : from+max]
	for {
		n, err := syscall.Write(dst.fd, p)
		if err == syscall.EINTR || err == syscall.EAGAIN {
			continue
		}
		if err != nil {
			return outcome{}, err
		}
		m.mode = modeView
		return outcome{moved: int64(n)}, nil
	}
}

// fillFrom moves up to want bytes from src into the buffer at its fill
// mark. A single primitive call may legitimately move fewer bytes than
// requested; the loop re-issues with the remaining length until want is
// satisfied or the source reports end-of-stream (second return true).
func (b *StagingBuffer) fillFrom(m *mover, src endpoint, want int64) (int64, bool, error) {
	b.checkReleased()
	if want > b.capacity-b.fill {
		want = b.capacity - b.fill
	}
	var moved int64
	for moved < want {
		out, err := m.fillOnce(src, b, min(want-moved, maxTransferChunk))
		if err != nil {
			return moved, false, err
		}
		if out.eof {
			return moved, true, nil
		}
		moved += out.moved
		b.fill += out.moved
	}
	return moved, false, nil
}

var errNoProgress = errors.New("no forward progress draining staging buffer")

// drainTo writes every accepted byte to dst, in order. The buffer's
// descriptor is read at explicit offsets, so the fill accounting is the
// only source of truth for how much leaves the buffer.
func (b *StagingBuffer) drainTo(m *mover, dst endpoint) (int64, error) {
	b.checkReleased()
	var drained int64
	for drained < b.fill {
		out, err := m.drainOnce(b, drained, dst, min(b.fill-drained, maxTransferChunk))
		if err != nil {
			return drained, err
		}
		if out.eof || out.moved == 0 {
			return drained, errNoProgress
		}
		drained += out.moved
	}
	return drained, nil
}
