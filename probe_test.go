package pagestage

import (
	"os"
	"testing"
)

// =============================================================================
// Size Probe Tests
// =============================================================================

func TestProbeSize_RegularFile(t *testing.T) {
	f := writeTempFile(t, []byte("hello pagestage"))
	defer f.Close()

	hint := ProbeSize(f)
	if !hint.Known {
		t.Fatal("ProbeSize on a non-empty regular file: got Unknown, want Known")
	}
	if hint.Total != 15 {
		t.Errorf("hint.Total = %d, want 15", hint.Total)
	}
}

func TestProbeSize_EmptyFile(t *testing.T) {
	f := writeTempFile(t, nil)
	defer f.Close()

	hint := ProbeSize(f)
	if hint.Known {
		t.Errorf("ProbeSize on an empty file: got Known(%d), want Unknown", hint.Total)
	}
}

func TestProbeSize_Pipe(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer pr.Close()
	defer pw.Close()

	hint := ProbeSize(pr)
	if hint.Known {
		t.Errorf("ProbeSize on a pipe: got Known(%d), want Unknown", hint.Total)
	}
}

func TestPageSize(t *testing.T) {
	if ps := pageSize(); ps <= 0 {
		t.Fatalf("pageSize() = %d, want positive", ps)
	}
	if pageSize() != os.Getpagesize() {
		t.Errorf("pageSize() = %d, want %d", pageSize(), os.Getpagesize())
	}
}

// writeTempFile creates a temp file holding data, with the cursor back
// at the start, and registers cleanup of the underlying path.
func writeTempFile(t *testing.T, data []byte) *os.File {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "pagestage-test-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			t.Fatalf("writing temp file: %v", err)
		}
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("seeking temp file: %v", err)
	}
	return f
}
