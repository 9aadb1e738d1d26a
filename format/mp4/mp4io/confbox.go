package mp4io

import (
	"fmt"
	"io"
	"math"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
)

const (
	AVCC = Tag(0x61766343)
	HVCC = Tag(0x68766343)
)

// ConfBox carries a serialized AVCDecoderConfigurationRecord or HEVCDecoderConfigurationRecord.
// Data is the record body; the box header is added by Marshal.
type ConfBox struct {
	Type Tag
	Data []byte
	AtomPos
}

func NewAVCConfBox(record []byte) *ConfBox {
	return &ConfBox{Type: AVCC, Data: record}
}

func NewHEVCConfBox(record []byte) *ConfBox {
	return &ConfBox{Type: HVCC, Data: record}
}

func (c *ConfBox) Tag() Tag {
	return c.Type
}

func (c *ConfBox) Len() int {
	return HeaderSize + len(c.Data)
}

func (c *ConfBox) Marshal(b []byte) (n int) {
	pio.PutU32BE(b[4:], uint32(c.Type))
	n = HeaderSize
	n += copy(b[n:], c.Data)
	pio.PutU32BE(b, uint32(n)) //nolint:gosec // checked by WriteTo
	return
}

// Unmarshal reads a box whose header starts at b[0]. b must hold exactly the box.
func (c *ConfBox) Unmarshal(b []byte, offset int) (n int, err error) {
	if len(b) < HeaderSize {
		err = parseErr("hdr", offset, fmt.Errorf("mp4io: %d byte box: %w", len(b), utils.ErrMalformedInput))
		return
	}
	if size := int(pio.U32BE(b)); size != len(b) {
		err = parseErr("size", offset, fmt.Errorf("mp4io: box size %d over %d bytes: %w",
			size, len(b), utils.ErrMalformedInput))
		return
	}
	c.setPos(offset, len(b))
	c.Type = Tag(pio.U32BE(b[4:]))
	c.Data = b[HeaderSize:]
	n = len(b)
	return
}

func (c *ConfBox) Children() []Atom {
	return nil
}

// WriteTo writes the framed box. Records that overflow the 32-bit size field fail with
// utils.ErrUnsupported before anything is written.
func (c *ConfBox) WriteTo(w io.Writer) (int64, error) {
	if uint64(c.Len()) > math.MaxUint32 {
		return 0, fmt.Errorf("mp4io: %v box of %d bytes: %w", c.Type, c.Len(), utils.ErrUnsupported)
	}
	b := make([]byte, c.Len())
	c.Marshal(b)

	cw := &pio.CountingWriter{W: w}
	if _, err := cw.Write(b); err != nil {
		return cw.N, &utils.IOError{Op: "mp4io: write " + c.Type.String(), Err: err}
	}
	return cw.N, nil
}

var _ Atom = (*ConfBox)(nil)
