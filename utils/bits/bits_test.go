package bits

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset/utils"
)

func TestBitByBitWriting(t *testing.T) {
	t.Parallel()

	expected := []byte{0b10011010, 0b10010011}
	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	for _, b := range expected {
		for i := 7; i >= 0; i-- {
			require.NoError(t, w.WriteBit(uint(b>>i)&1))
		}
	}
	require.NoError(t, w.Flush())
	require.Equal(t, expected, buf.Bytes())
}

func TestUERoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}
	for i := range uint(100_001) {
		require.NoError(t, w.WriteUE(i))
	}
	require.NoError(t, w.Flush())

	r := &GolombBitReader{R: bytes.NewReader(buf.Bytes())}
	for i := range uint(100_001) {
		v, err := r.ReadUE()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestSERoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}
	for i := -500; i <= 500; i++ {
		require.NoError(t, w.WriteSE(i))
	}
	require.NoError(t, w.Flush())

	r := &GolombBitReader{R: bytes.NewReader(buf.Bytes())}
	for i := -500; i <= 500; i++ {
		v, err := r.ReadSE()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestKnownCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		ue   uint
		se   int
	}{
		{name: "zero", data: []byte{0b10000000}, ue: 0, se: 0},
		{name: "one", data: []byte{0b01000000}, ue: 1, se: 1},
		{name: "two", data: []byte{0b01100000}, ue: 2, se: -1},
		{name: "three", data: []byte{0b00100000}, ue: 3, se: 2},
		{name: "four", data: []byte{0b00101000}, ue: 4, se: -2},
		{name: "seven", data: []byte{0b00010000, 0b00000000}, ue: 7, se: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ue, err := (&GolombBitReader{R: bytes.NewReader(tt.data)}).ReadUE()
			require.NoError(t, err)
			require.Equal(t, tt.ue, ue)

			se, err := (&GolombBitReader{R: bytes.NewReader(tt.data)}).ReadSE()
			require.NoError(t, err)
			require.Equal(t, tt.se, se)
		})
	}
}

func TestWriteNBits(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	require.NoError(t, w.WriteNBits(4, 0))
	require.NoError(t, w.WriteNBits(4, 0xFF))
	require.NoError(t, w.WriteNBits(4, 0xFF))
	require.NoError(t, w.WriteNBits(4, 0))
	require.NoError(t, w.Flush())

	require.Equal(t, []byte{0b00001111, 0b11110000}, buf.Bytes())
}

func TestWriteNBitsAcrossBounds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	require.NoError(t, w.WriteNBits(5, 0))
	require.NoError(t, w.WriteNBits(5, 0xFF))
	require.NoError(t, w.Flush())

	require.Equal(t, []byte{0b00000111, 0b11000000}, buf.Bytes())
}

func TestWriteNBitsWide(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	require.NoError(t, w.WriteNBits(3, 0b101))
	require.NoError(t, w.WriteNBits(32, 0xDEADBEEF))
	require.NoError(t, w.Flush())

	r := &GolombBitReader{R: bytes.NewReader(buf.Bytes())}
	head, err := r.ReadBits(3)
	require.NoError(t, err)
	require.Equal(t, uint(0b101), head)
	body, err := r.ReadBits32(32)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), body)
}

func TestWriteNBitsPanicsOnWidth(t *testing.T) {
	t.Parallel()

	w := &GolombBitWriter{W: io.Discard}
	require.Panics(t, func() { _ = w.WriteNBits(33, 0) })
}

func TestWriteByteDropsPartialByte(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.WriteByte(0x42))
	require.NoError(t, w.Flush())

	require.Equal(t, []byte{0x42}, buf.Bytes())
}

func TestFlushOnBoundaryIsNoop(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := &GolombBitWriter{W: &buf}

	require.NoError(t, w.WriteNBits(8, 0xAB))
	require.NoError(t, w.Flush())
	require.Equal(t, []byte{0xAB}, buf.Bytes())
}

func TestReadByteRealigns(t *testing.T) {
	t.Parallel()

	r := &GolombBitReader{R: bytes.NewReader([]byte{0b10100000, 0x7F, 0b11000000})}

	bit, err := r.ReadBit()
	require.NoError(t, err)
	require.Equal(t, uint(1), bit)

	b, err := r.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x7F), b)

	v, err := r.ReadBits(2)
	require.NoError(t, err)
	require.Equal(t, uint(0b11), v)
}

func TestReadBits64(t *testing.T) {
	t.Parallel()

	r := &GolombBitReader{R: bytes.NewReader([]byte{0x90, 0x00, 0x00, 0x00, 0x00, 0x01, 0xFF})}
	v, err := r.ReadBits64(48)
	require.NoError(t, err)
	require.Equal(t, uint64(0x900000000001), v)
}

func TestReadUnderrun(t *testing.T) {
	t.Parallel()

	r := &GolombBitReader{R: bytes.NewReader([]byte{0x00})}
	_, err := r.ReadUE()
	require.Error(t, err)

	var ioErr *utils.IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadOverlongPrefix(t *testing.T) {
	t.Parallel()

	r := &GolombBitReader{R: bytes.NewReader(make([]byte, 8))}
	_, err := r.ReadUE()
	require.ErrorIs(t, err, utils.ErrMalformedInput)
}

type failingWriter struct{}

var errSinkClosed = errors.New("sink closed")

func (failingWriter) Write([]byte) (int, error) { return 0, errSinkClosed }

func TestWriteFailure(t *testing.T) {
	t.Parallel()

	w := &GolombBitWriter{W: failingWriter{}}
	require.NoError(t, w.WriteNBits(7, 0))
	err := w.WriteBit(1)

	var ioErr *utils.IOError
	require.ErrorAs(t, err, &ioErr)
	require.ErrorIs(t, err, errSinkClosed)
}
