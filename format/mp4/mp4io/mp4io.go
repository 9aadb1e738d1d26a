// Package mp4io frames decoder configuration records as ISO/IEC 14496-12 boxes.
package mp4io

import (
	"fmt"
	"io"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
)

// HeaderSize is the size of a compact box header: u32 size followed by the four character type.
const HeaderSize = 8

// maxConfBoxSize bounds what ReadConfBox allocates. Three arrays of 65535 byte units fit.
const maxConfBoxSize = 1 << 20

type Tag uint32

func (t Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(t))
	for i := range 4 {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], tag)
	return Tag(pio.U32BE(b[:]))
}

type Atom interface {
	Pos() (int, int)
	Tag() Tag
	Marshal([]byte) int
	Unmarshal([]byte, int) (int, error)
	Len() int
	Children() []Atom
}

type AtomPos struct {
	Offset int
	Size   int
}

func (p AtomPos) Pos() (int, int) {
	return p.Offset, p.Size
}

func (p *AtomPos) setPos(offset int, size int) {
	p.Offset, p.Size = offset, size
}

// ReadConfBox reads one avcC or hvcC box from r. Boxes of any other type are rejected.
func ReadConfBox(r io.Reader) (box *ConfBox, err error) {
	var hdr [HeaderSize]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		err = &utils.IOError{Op: "mp4io: read box header", Err: err}
		return
	}
	size := int(pio.U32BE(hdr[:]))
	tag := Tag(pio.U32BE(hdr[4:]))
	if tag != AVCC && tag != HVCC {
		err = fmt.Errorf("mp4io: unexpected box %q: %w", tag, utils.ErrMalformedInput)
		return
	}
	if size < HeaderSize || size > maxConfBoxSize {
		err = parseErr("size", 0, fmt.Errorf("mp4io: box size %d: %w", size, utils.ErrMalformedInput))
		return
	}

	b := make([]byte, size)
	copy(b, hdr[:])
	if _, err = io.ReadFull(r, b[HeaderSize:]); err != nil {
		err = &utils.IOError{Op: "mp4io: read " + tag.String(), Err: err}
		return
	}
	box = &ConfBox{}
	if _, err = box.Unmarshal(b, 0); err != nil {
		box = nil
	}
	return
}
