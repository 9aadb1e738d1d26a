package bits

import (
	"fmt"
	"io"
	"math"
	mathbits "math/bits"

	"github.com/ugparu/paramset/utils"
)

// GolombBitWriter writes bits most-significant first to W.
// Flush must be called once after the last bit-level write.
type GolombBitWriter struct {
	W   io.Writer
	cur byte
	pos uint8 // bits already used in cur
}

func (w *GolombBitWriter) emit(b byte) error {
	if _, err := w.W.Write([]byte{b}); err != nil {
		return &utils.IOError{Op: "bits: write", Err: err}
	}
	return nil
}

func (w *GolombBitWriter) WriteBit(bit uint) error {
	w.cur |= byte(bit&1) << (7 - w.pos)
	w.pos++
	if w.pos == 8 {
		b := w.cur
		w.cur, w.pos = 0, 0
		return w.emit(b)
	}
	return nil
}

func (w *GolombBitWriter) WriteBool(v bool) error {
	if v {
		return w.WriteBit(1)
	}
	return w.WriteBit(0)
}

// WriteByte drops any pending partial byte without padding it and writes v as is.
// Callers must know the stream is byte aligned at this point.
func (w *GolombBitWriter) WriteByte(v byte) error {
	w.cur, w.pos = 0, 0
	return w.emit(v)
}

// WriteNBits writes the low n bits of value, n <= 32.
func (w *GolombBitWriter) WriteNBits(n int, value uint32) error {
	if n < 0 || n > 32 {
		panic(fmt.Sprintf("bits: cannot write %d bits at once", n))
	}
	for n > 0 {
		free := int(8 - w.pos)
		take := min(free, n)
		chunk := (uint64(value) >> (n - take)) & (1<<take - 1)
		w.cur |= byte(chunk << (free - take))
		w.pos += uint8(take) //nolint:gosec // take <= 8
		n -= take
		if w.pos == 8 {
			b := w.cur
			w.cur, w.pos = 0, 0
			if err := w.emit(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteUE encodes value as ue(v): k zeros, a one, then value-(2^k-1) on k bits.
func (w *GolombBitWriter) WriteUE(value uint) error {
	if uint64(value) > math.MaxUint32 {
		panic(fmt.Sprintf("bits: ue value %d out of range", value))
	}
	code := uint64(value) + 1
	k := mathbits.Len64(code) - 1
	if err := w.WriteNBits(k, 0); err != nil {
		return err
	}
	if err := w.WriteBit(1); err != nil {
		return err
	}
	return w.WriteNBits(k, uint32(code-(1<<k))) //nolint:gosec // remainder < 2^k <= 2^32
}

// WriteSE encodes value as se(v); it is the inverse of GolombBitReader.ReadSE.
func (w *GolombBitWriter) WriteSE(value int) error {
	var code uint
	if value > 0 {
		code = uint(2*value - 1) //nolint:gosec // value > 0
	} else {
		code = uint(-2 * value) //nolint:gosec // value <= 0
	}
	return w.WriteUE(code)
}

// Flush emits the pending partial byte, zero padded. It is a no-op on a byte boundary.
func (w *GolombBitWriter) Flush() error {
	if w.pos == 0 {
		return nil
	}
	b := w.cur
	w.cur, w.pos = 0, 0
	return w.emit(b)
}
