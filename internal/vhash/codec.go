package vhash

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash"
	"hash/crc32"
	"io"
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/vhash/pkg/errors"
)

// Model files are little-endian; floats are stored as their IEEE-754 bits so
// a save/load round trip is bit-exact.
const (
	MagicBytes    uint32 = 0x56485348 // "VHSH"
	FormatVersion uint32 = 1

	maxPhraseBytes = 1 << 20
	readChunk      = 1 << 14
)

// encoder writes fixed-width fields and keeps the first error. Every byte
// passes through the running checksum.
type encoder struct {
	w   *bufio.Writer
	crc hash.Hash32
	n   int64
	err error
	buf [8]byte
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriter(w), crc: crc32.NewIEEE()}
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	e.crc.Write(p[:n])
	e.err = err
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.write(e.buf[:8])
}

func (e *encoder) int(v int) { e.u64(uint64(v)) }

func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }

func (e *encoder) str(s string) {
	e.int(len(s))
	if e.err == nil {
		n, err := e.w.WriteString(s)
		e.n += int64(n)
		e.crc.Write([]byte(s[:n]))
		e.err = err
	}
}

func (e *encoder) f32s(vs []float32) {
	e.u32(uint32(len(vs)))
	for _, v := range vs {
		e.f32(v)
	}
}

func (e *encoder) ints(vs []int) {
	e.u32(uint32(len(vs)))
	for _, v := range vs {
		e.int(v)
	}
}

// finish appends the checksum of everything written so far and flushes.
func (e *encoder) finish() (uint32, error) {
	sum := e.crc.Sum32()
	if e.err == nil {
		binary.LittleEndian.PutUint32(e.buf[:4], sum)
		n, err := e.w.Write(e.buf[:4])
		e.n += int64(n)
		e.err = err
	}
	if e.err == nil {
		e.err = e.w.Flush()
	}
	return sum, e.err
}

// decoder mirrors encoder. A short read is reported as a corrupt model. The
// source is buffered, so bytes past the checksum may be consumed.
type decoder struct {
	r   *bufio.Reader
	crc hash.Hash32
	n   int64
	err error
	buf [8]byte
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{r: bufio.NewReader(r), crc: crc32.NewIEEE()}
}

func (d *decoder) read(p []byte) {
	if d.err != nil {
		return
	}
	n, err := io.ReadFull(d.r, p)
	d.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = apperrors.Corruptf("truncated after %d bytes", d.n)
		}
		d.err = err
		return
	}
	d.crc.Write(p)
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) u32() uint32 {
	d.read(d.buf[:4])
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(d.buf[:4])
}

func (d *decoder) u64() uint64 {
	d.read(d.buf[:8])
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(d.buf[:8])
}

// int reads a u64 that must fit a non-negative int.
func (d *decoder) int(field string) int {
	v := d.u64()
	if v > math.MaxInt {
		d.fail(apperrors.Corruptf("%s out of range: %d", field, v))
		return 0
	}
	return int(v)
}

func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }

func (d *decoder) str() string {
	n := d.u64()
	if d.err != nil {
		return ""
	}
	if n > maxPhraseBytes {
		d.fail(apperrors.Corruptf("phrase length %d exceeds %d", n, maxPhraseBytes))
		return ""
	}
	b := make([]byte, n)
	d.read(b)
	return string(b)
}

// f32s reads a u32-prefixed array in bounded chunks so a corrupt length
// cannot force a huge allocation up front.
func (d *decoder) f32s() []float32 {
	n := int(d.u32())
	out := make([]float32, 0, min(n, readChunk))
	chunk := make([]byte, 4*min(n, readChunk))
	for len(out) < n && d.err == nil {
		k := min(n-len(out), readChunk)
		d.read(chunk[:4*k])
		for i := 0; i < k && d.err == nil; i++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:])))
		}
	}
	return out
}

func (d *decoder) ints() []int {
	n := int(d.u32())
	out := make([]int, 0, min(n, readChunk))
	chunk := make([]byte, 8*min(n, readChunk))
	for len(out) < n && d.err == nil {
		k := min(n-len(out), readChunk)
		d.read(chunk[:8*k])
		for i := 0; i < k && d.err == nil; i++ {
			v := binary.LittleEndian.Uint64(chunk[8*i:])
			if v > math.MaxInt {
				d.fail(apperrors.Corruptf("index out of range: %d", v))
				break
			}
			out = append(out, int(v))
		}
	}
	return out
}

// verify reads the trailing checksum and compares it with the bytes seen.
func (d *decoder) verify() {
	if d.err != nil {
		return
	}
	want := d.crc.Sum32()
	var b [4]byte
	n, err := io.ReadFull(d.r, b[:])
	d.n += int64(n)
	if err != nil {
		d.fail(apperrors.Corruptf("missing checksum"))
		return
	}
	if got := binary.LittleEndian.Uint32(b[:]); got != want {
		d.fail(apperrors.Corruptf("checksum mismatch: stored %08x, computed %08x", got, want))
	}
}
