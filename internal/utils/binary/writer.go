package binary

import "github.com/gagliardetto/solana-go"

// Writer packs fields into a buffer sized for the worst case and hands out
// only the prefix that was actually written. The first failed write is kept
// and every later write becomes a no-op, so callers check Err once at the end.
type Writer struct {
	buf    []byte
	offset int
	err    error
}

// NewWriter allocates a writer with capacity bytes of zeroed scratch space.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, capacity)}
}

func (w *Writer) Uint8(v uint8) *Writer {
	if w.err == nil {
		w.err = PutUint8(w.buf, v, &w.offset)
	}
	return w
}

func (w *Writer) Uint64(v uint64) *Writer {
	if w.err == nil {
		w.err = PutUint64(w.buf, v, &w.offset)
	}
	return w
}

func (w *Writer) Key32(key solana.PublicKey) *Writer {
	if w.err == nil {
		w.err = PutKey32(w.buf, key, &w.offset)
	}
	return w
}

func (w *Writer) Raw(v []byte) *Writer {
	if w.err == nil {
		w.err = PutBytes(w.buf, v, &w.offset)
	}
	return w
}

// Len is the number of bytes written so far.
func (w *Writer) Len() int { return w.offset }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

// Bytes returns a copy of the written prefix. Trailing scratch space never leaks.
func (w *Writer) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	out := make([]byte, w.offset)
	copy(out, w.buf[:w.offset])
	return out, nil
}
