// Package wire provides fixed-capacity byte fields for wire message encoding,
// the Go analogue of fon9's CharAry family.
package wire

import "bytes"

// Field is a fixed-capacity, space-filled byte buffer. It never grows past
// its configured capacity: construction and assignment always truncate or
// pad to exactly Cap() bytes.
type Field struct {
	buf    []byte
	filler byte
}

// NewField returns an empty Field of the given capacity, filled with filler.
func NewField(capacity int, filler byte) *Field {
	f := &Field{buf: make([]byte, capacity), filler: filler}
	f.Clear()
	return f
}

// NewFieldFrom returns a Field of the given capacity populated from src.
func NewFieldFrom(capacity int, filler byte, src string) *Field {
	f := NewField(capacity, filler)
	f.CopyFrom([]byte(src))
	return f
}

// Cap returns the field's fixed capacity.
func (f *Field) Cap() int { return len(f.buf) }

// Clear resets every byte to the filler value.
func (f *Field) Clear() {
	for i := range f.buf {
		f.buf[i] = f.filler
	}
}

// CopyFrom truncates-or-pads src into the field. If src is longer than the
// capacity it is truncated; if shorter, the remainder is filled with filler.
func (f *Field) CopyFrom(src []byte) {
	n := copy(f.buf, src)
	for i := n; i < len(f.buf); i++ {
		f.buf[i] = f.filler
	}
}

// MoveFrom behaves like CopyFrom but tolerates src aliasing the field's own
// backing array (uses an overlap-safe copy).
func (f *Field) MoveFrom(src []byte) {
	tmp := make([]byte, len(src))
	copy(tmp, src)
	f.CopyFrom(tmp)
}

// Fixed returns a view of all Cap() bytes, fillers included. Two fields
// compare equal under this view only if every byte, including padding,
// matches.
func (f *Field) Fixed() []byte { return f.buf }

// CString returns a view of the bytes up to (excluding) the first zero byte,
// or the whole field if no zero byte is present. This mirrors CharAry's
// default ToStrView behavior.
func (f *Field) CString() []byte {
	if i := bytes.IndexByte(f.buf, 0); i >= 0 {
		return f.buf[:i]
	}
	return f.buf
}

// Trimmed returns a view with trailing filler bytes stripped, but never
// shorter than minPayload. This mirrors CharAryP's CheckLength/ToStrView.
func (f *Field) Trimmed(minPayload int) []byte {
	n := len(f.buf)
	for n > minPayload && f.buf[n-1] == f.filler {
		n--
	}
	return f.buf[:n]
}

// Compare does a byte-for-byte comparison of the full fixed-width view,
// matching CharAryF's Compare (padding participates in ordering).
func (f *Field) Compare(other *Field) int {
	return bytes.Compare(f.Fixed(), other.Fixed())
}

// CompareCString compares the C-string views (stops at the first zero byte
// in either field), matching CharAry's default Compare.
func (f *Field) CompareCString(other *Field) int {
	return bytes.Compare(f.CString(), other.CString())
}

// String renders the C-string view.
func (f *Field) String() string { return string(f.CString()) }
