// Package bits implements MSB-first bit readers and writers with Exponential-Golomb coding
// as used by the H.264 and H.265 parameter set syntax.
package bits

import (
	"fmt"
	"io"

	"github.com/ugparu/paramset/utils"
)

// maxGolombPrefix bounds the leading zero run of an Exp-Golomb code.
// No syntax element handled here needs more than 32 bits of suffix.
const maxGolombPrefix = 32

// GolombBitReader reads bits most-significant first from R.
// The zero value with R set is ready to use.
type GolombBitReader struct {
	R    io.Reader
	buf  [1]byte
	left uint8 // unread bits in buf[0]
}

func (r *GolombBitReader) fill() error {
	if _, err := io.ReadFull(r.R, r.buf[:]); err != nil {
		return &utils.IOError{Op: "bits: read", Err: err}
	}
	r.left = 8
	return nil
}

// ReadBit returns the next bit, pulling a new byte from R when the current one is used up.
func (r *GolombBitReader) ReadBit() (res uint, err error) {
	if r.left == 0 {
		if err = r.fill(); err != nil {
			return
		}
	}
	r.left--
	res = uint(r.buf[0]>>r.left) & 1
	return
}

// ReadByte drops whatever is left of the current byte and reads the next one from R.
// It is only meaningful where the syntax guarantees byte alignment.
func (r *GolombBitReader) ReadByte() (byte, error) {
	r.left = 0
	if err := r.fill(); err != nil {
		return 0, err
	}
	r.left = 0
	return r.buf[0], nil
}

// ReadBits reads an n-bit unsigned field.
func (r *GolombBitReader) ReadBits(n int) (res uint, err error) {
	for range n {
		var bit uint
		if bit, err = r.ReadBit(); err != nil {
			return
		}
		res = res<<1 | bit
	}
	return
}

func (r *GolombBitReader) ReadBits32(n int) (res uint32, err error) {
	var v uint
	v, err = r.ReadBits(n)
	res = uint32(v) //nolint:gosec // n <= 32 at every call site
	return
}

func (r *GolombBitReader) ReadBits64(n int) (res uint64, err error) {
	for range n {
		var bit uint
		if bit, err = r.ReadBit(); err != nil {
			return
		}
		res = res<<1 | uint64(bit)
	}
	return
}

// ReadExponentialGolombCode decodes one ue(v) code: k leading zeros, a one, then a k-bit suffix.
func (r *GolombBitReader) ReadExponentialGolombCode() (res uint, err error) {
	k := 0
	for {
		var bit uint
		if bit, err = r.ReadBit(); err != nil {
			return
		}
		if bit == 1 {
			break
		}
		k++
		if k > maxGolombPrefix {
			err = fmt.Errorf("bits: exp-golomb prefix longer than %d bits: %w", maxGolombPrefix, utils.ErrMalformedInput)
			return
		}
	}
	var suffix uint
	if suffix, err = r.ReadBits(k); err != nil {
		return
	}
	res = suffix + (1 << k) - 1
	return
}

func (r *GolombBitReader) ReadUE() (uint, error) {
	return r.ReadExponentialGolombCode()
}

// ReadSE decodes a se(v) code; code numbers 0, 1, 2, 3, 4 map to 0, 1, -1, 2, -2.
func (r *GolombBitReader) ReadSE() (res int, err error) {
	var code uint
	if code, err = r.ReadExponentialGolombCode(); err != nil {
		return
	}
	half := int((code + 1) / 2) //nolint:gosec // code < 2^33
	if code%2 == 0 {
		res = -half
	} else {
		res = half
	}
	return
}
