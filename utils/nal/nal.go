package nal

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
)

// Format is the framing SplitNALUs detected.
type Format int

// Constants for different NALU (Network Abstraction Layer Unit) formats.
const (
	FormatRaw    Format = iota // Raw NALU format.
	FormatAVCC                 // AVCC NALU format.
	FormatAnnexB               // ANNEXB NALU format.
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatAVCC:
		return "avcc"
	case FormatAnnexB:
		return "annexb"
	}
	return "unknown"
}

// MinNaluSize is the minimum size of a Network Abstraction Layer Unit (NALU).
const MinNaluSize = 4

var (
	startCode3 = []byte{0, 0, 1}
	startCode4 = []byte{0, 0, 0, 1}
)

// startCodeAt reports the length of a start code beginning at b[0], or 0 if there is none.
// The 4-byte form is checked first so a leading zero never ends up in the previous unit.
func startCodeAt(b []byte) int {
	if bytes.HasPrefix(b, startCode4) {
		return len(startCode4)
	}
	if bytes.HasPrefix(b, startCode3) {
		return len(startCode3)
	}
	return 0
}

// AnnexBUnits walks the NAL units of an Annex-B byte stream.
// Units are sub-slices of the input and exclude start codes.
// The sequence can be consumed once.
type AnnexBUnits struct {
	rest []byte
}

// NewAnnexBUnits checks that b opens with a start code and prepares the scan.
func NewAnnexBUnits(b []byte) (*AnnexBUnits, error) {
	n := startCodeAt(b)
	if n == 0 {
		return nil, fmt.Errorf("nal: stream does not begin with a start code: %w", utils.ErrMalformedInput)
	}
	return &AnnexBUnits{rest: b[n:]}, nil
}

// Next returns the next unit. The boolean is false once the stream is exhausted.
func (u *AnnexBUnits) Next() ([]byte, bool) {
	if len(u.rest) == 0 {
		return nil, false
	}
	end, next := len(u.rest), len(u.rest)
	for i := range u.rest {
		if n := startCodeAt(u.rest[i:]); n != 0 {
			end, next = i, i+n
			break
		}
	}
	unit := u.rest[:end]
	u.rest = u.rest[next:]
	return unit, true
}

// All exposes the remaining units as a range-over-func sequence.
func (u *AnnexBUnits) All() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			unit, ok := u.Next()
			if !ok || !yield(unit) {
				return
			}
		}
	}
}

// SplitAnnexB collects every unit of an Annex-B stream.
func SplitAnnexB(b []byte) ([][]byte, error) {
	units, err := NewAnnexBUnits(b)
	if err != nil {
		return nil, err
	}
	var nalus [][]byte
	for unit := range units.All() {
		nalus = append(nalus, unit)
	}
	return nalus, nil
}

// SplitNALUs splits a byte slice into Network Abstraction Layer Units (NALUs)
// based on different formats (Raw, AVCC, or ANNEXB) and returns the NALUs and the format type.
func SplitNALUs(b []byte) (nalus [][]byte, typ Format) {
	// If the byte slice is smaller than the minimum NALU size, consider it as a single raw NALU.
	if len(b) < MinNaluSize {
		return [][]byte{b}, FormatRaw
	}

	if startCodeAt(b) != 0 {
		nalus, _ = SplitAnnexB(b)
		return nalus, FormatAnnexB
	}

	if nalus, ok := splitAVCC(b); ok {
		return nalus, FormatAVCC
	}

	// If none of the formats match, consider it as a single raw NALU.
	return [][]byte{b}, FormatRaw
}

// splitAVCC accepts b only if its 4-byte length prefixes tile it exactly.
func splitAVCC(b []byte) (nalus [][]byte, ok bool) {
	for len(b) >= MinNaluSize {
		size := pio.U32BE(b)
		b = b[MinNaluSize:]
		if size == 0 || uint64(size) > uint64(len(b)) {
			return nil, false
		}
		nalus = append(nalus, b[:size])
		b = b[size:]
	}
	return nalus, len(b) == 0 && len(nalus) > 0
}

// EmulationPreventionRemove converts a NAL unit payload to its raw byte sequence payload by
// dropping every 0x03 that follows two zero bytes.
func EmulationPreventionRemove(nalu []byte) []byte {
	return h264.EmulationPreventionRemove(nalu)
}
