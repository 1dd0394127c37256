package visit

import (
	"encoding/binary"
	"math"
)

// writer builds the binary form of a visitor tree. All multi-byte writes
// are little-endian.
type writer struct {
	buf []byte
}

func newWriter() *writer {
	return &writer{buf: make([]byte, 0, 256)}
}

func (w *writer) writeC(v byte) {
	w.buf = append(w.buf, v)
}

func (w *writer) writeD(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// writeS writes a length-prefixed string.
func (w *writer) writeS(s string) {
	w.writeD(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// writeB writes length-prefixed raw bytes.
func (w *writer) writeB(b []byte) {
	w.writeD(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) bytes() []byte {
	return w.buf
}

// reader walks the binary form. Reads past the end return zero values and
// latch the short flag; callers check ok() once per logical record.
type reader struct {
	data  []byte
	off   int
	short bool
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) readC() byte {
	if r.off >= len(r.data) {
		r.short = true
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *reader) readD() uint32 {
	if r.off+4 > len(r.data) {
		r.short = true
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) readB() []byte {
	n := int(r.readD())
	if r.short || n > r.remaining() {
		r.short = true
		r.off = len(r.data)
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

func (r *reader) readS() string {
	return string(r.readB())
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) ok() bool {
	return !r.short
}

func putF32(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

func getF32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putF64(v float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

func getF64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
