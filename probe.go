package pagestage

import "os"

// SizeHint is the up-front classification of the input's total length.
// It is produced once per collection operation and immutable thereafter.
type SizeHint struct {
	Known bool
	Total int64 // valid only when Known
}

// ProbeSize queries the input's reported size via its status metadata.
// It returns a Known hint only for a positive reported size: a size of
// zero and a failed query both yield Unknown, because a zero-length
// input cannot be distinguished from an unsized stream at this layer.
// The probe blocks on metadata only, never on the input's data.
func ProbeSize(f *os.File) SizeHint {
	fi, err := f.Stat()
	if err != nil || fi.Size() <= 0 {
		return SizeHint{}
	}
	return SizeHint{Known: true, Total: fi.Size()}
}
