//go:build linux
// +build linux

package pagestage

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"golang.org/x/sys/unix"
)

// =============================================================================
// Buffer Chain Tests
// =============================================================================

// Every byte the chain accepts must come back out: the chain's filled
// accounting and the drained total agree.
func TestChainFilledMatchesDrained(t *testing.T) {
	data := patternBytes(pageSize() + 100)
	in := writeTempFile(t, data)
	defer in.Close()
	out := writeTempFile(t, nil)
	defer out.Close()

	chain := newChain(1)
	defer func() {
		if err := chain.release(); err != nil {
			t.Errorf("release: %v", err)
		}
	}()

	var fill, drain mover
	defer fill.Close()
	defer drain.Close()

	src := endpoint{fd: int(in.Fd())}
	remaining := int64(len(data))
	for remaining > 0 {
		b, err := chain.grow()
		if err != nil {
			t.Fatalf("grow: %v", err)
		}
		moved, eof, err := b.fillFrom(&fill, src, remaining)
		if err != nil {
			t.Fatalf("fillFrom: %v", err)
		}
		remaining -= moved
		if eof {
			break
		}
	}

	if got := chain.Filled(); got != int64(len(data)) {
		t.Errorf("Filled() = %d, want %d", got, len(data))
	}

	drained, err := chain.drainTo(&drain, endpoint{fd: int(out.Fd())})
	if err != nil {
		t.Fatalf("drainTo: %v", err)
	}
	if drained != chain.Filled() {
		t.Errorf("drained %d bytes, want Filled() (%d)", drained, chain.Filled())
	}

	if _, err := out.Seek(0, 0); err != nil {
		t.Fatalf("seeking output: %v", err)
	}
	got, err := io.ReadAll(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("output does not match input")
	}
}

// When several buffers fail to release, every failure must be reported,
// not just the first.
func TestChainReleaseReportsEveryFailure(t *testing.T) {
	chain := &BufferChain{
		pages: 1,
		bufs: []*StagingBuffer{
			{fd: -1},
			{fd: -1},
		},
	}

	err := chain.release()
	if err == nil {
		t.Fatal("release of unreleasable buffers: expected error")
	}
	if !errors.Is(err, unix.EBADF) {
		t.Errorf("errors.Is(err, EBADF) = false for %v", err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("release error %T does not aggregate", err)
	}
	if got := len(joined.Unwrap()); got != 2 {
		t.Errorf("aggregated %d buffer failures, want 2", got)
	}
	if chain.Len() != 0 {
		t.Errorf("Len() = %d after release, want 0", chain.Len())
	}
}
