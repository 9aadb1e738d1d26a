//nolint:mnd // hvcC field offsets and widths from ISO/IEC 14496-15
package h265

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
)

// DefaultNumOfArrays is the numOfArrays value written when HEVCDecoderConfRecord.NumOfArrays is
// zero: one array each for the VPS, SPS and PPS.
const DefaultNumOfArrays = 3

// LegacyNumOfArrays reproduces records that declare two arrays while still carrying all three.
// Readers that trust the count stop before the PPS array.
const LegacyNumOfArrays = 2

// ErrDecconfInvalid reports a truncated or inconsistent HEVCDecoderConfigurationRecord.
var ErrDecconfInvalid = fmt.Errorf("h265parser: HEVCDecoderConfRecord invalid: %w", utils.ErrMalformedInput)

// HEVCDecoderConfRecord represents the HEVC decoder configuration record with one VPS, SPS and PPS.
// Reserved bits are written as zero and ignored on read; each field is masked to its width.
type HEVCDecoderConfRecord struct {
	GeneralProfileSpace              uint8
	GeneralTierFlag                  uint8
	GeneralProfileIDC                uint8
	GeneralProfileCompatibilityFlags uint32
	// GeneralConstraintIndicatorFlags carries the 48 flag bits in its six most significant bytes.
	GeneralConstraintIndicatorFlags uint64
	GeneralLevelIDC                 uint8
	MinSpatialSegmentationIDC       uint16
	ParallelismType                 uint8
	ChromaFormatIDC                 uint8
	BitDepthLumaMinus8              uint8
	BitDepthChromaMinus8            uint8
	AvgFrameRate                    uint16
	ConstantFrameRate               uint8
	NumTemporalLayers               uint8
	TemporalIDNested                uint8
	LengthSizeMinusOne              uint8

	VPS []byte
	SPS []byte
	PPS []byte

	// NumOfArrays overrides the numOfArrays byte. Zero writes DefaultNumOfArrays.
	NumOfArrays uint8
}

func (hvc *HEVCDecoderConfRecord) numOfArrays() uint8 {
	if hvc.NumOfArrays == 0 {
		return DefaultNumOfArrays
	}
	return hvc.NumOfArrays
}

func (hvc *HEVCDecoderConfRecord) validate() error {
	for _, set := range []struct {
		name string
		data []byte
	}{{"VPS", hvc.VPS}, {"SPS", hvc.SPS}, {"PPS", hvc.PPS}} {
		if len(set.data) > maxParameterSetSize {
			return fmt.Errorf("h265parser: %s of %d bytes does not fit the record: %w",
				set.name, len(set.data), utils.ErrUnsupported)
		}
	}
	return nil
}

// Len returns the serialized size of the record.
func (hvc *HEVCDecoderConfRecord) Len() int {
	return recordHeaderSize + 3*(arrayHeaderSize+nalUnitLengthSize) + len(hvc.VPS) + len(hvc.SPS) + len(hvc.PPS)
}

func (hvc *HEVCDecoderConfRecord) marshal(b []byte) (n int) {
	b[0] = recordVersion
	b[1] = (hvc.GeneralProfileSpace<<6)&0xc0 | (hvc.GeneralTierFlag<<5)&0x20 | hvc.GeneralProfileIDC&0x1f
	pio.PutU32BE(b[2:], hvc.GeneralProfileCompatibilityFlags)
	pio.PutU48BE(b[6:], hvc.GeneralConstraintIndicatorFlags>>16)
	b[12] = hvc.GeneralLevelIDC
	pio.PutU16BE(b[13:], hvc.MinSpatialSegmentationIDC&0x0fff)
	b[15] = hvc.ParallelismType & 0x03
	b[16] = hvc.ChromaFormatIDC & 0x03
	b[17] = hvc.BitDepthLumaMinus8 & 0x07
	b[18] = hvc.BitDepthChromaMinus8 & 0x0f
	pio.PutU16BE(b[19:], hvc.AvgFrameRate)
	b[21] = (hvc.ConstantFrameRate&0x03)<<6 | (hvc.NumTemporalLayers&0x07)<<3 |
		(hvc.TemporalIDNested&0x01)<<2 | hvc.LengthSizeMinusOne&0x03
	b[22] = hvc.numOfArrays()
	n = recordHeaderSize

	for _, set := range []struct {
		typ  NalUnitType
		data []byte
	}{{NalUnitVps, hvc.VPS}, {NalUnitSps, hvc.SPS}, {NalUnitPps, hvc.PPS}} {
		b[n] = uint8(set.typ) & maskNalUnitType
		pio.PutU16BE(b[n+1:], 1)
		n += arrayHeaderSize
		pio.PutU16BE(b[n:], uint16(len(set.data))) //nolint:gosec // checked by validate
		n += nalUnitLengthSize
		n += copy(b[n:], set.data)
	}
	return
}

// WriteTo serializes the record to w. Parameter sets longer than 65535 bytes fail with
// utils.ErrUnsupported before anything is written.
func (hvc *HEVCDecoderConfRecord) WriteTo(w io.Writer) (int64, error) {
	if err := hvc.validate(); err != nil {
		return 0, err
	}
	b := make([]byte, hvc.Len())
	hvc.marshal(b)

	cw := &pio.CountingWriter{W: w}
	if _, err := cw.Write(b); err != nil {
		return cw.N, &utils.IOError{Op: "h265parser: write record", Err: err}
	}
	return cw.N, nil
}

// Marshal returns the serialized record.
func (hvc *HEVCDecoderConfRecord) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(hvc.Len())
	if _, err := hvc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an hvcC body. The first VPS, SPS and PPS are kept and arrays of other types
// are skipped. Arrays found after the declared numOfArrays are still read, so records written with
// LegacyNumOfArrays parse completely; NumOfArrays keeps the declared value only when it differs
// from the number of arrays present.
func (hvc *HEVCDecoderConfRecord) Unmarshal(b []byte) (n int, err error) {
	if len(b) < recordHeaderSize {
		err = ErrDecconfInvalid
		return
	}

	hvc.GeneralProfileSpace = b[1] >> 6
	hvc.GeneralTierFlag = (b[1] >> 5) & 0x01
	hvc.GeneralProfileIDC = b[1] & 0x1f
	hvc.GeneralProfileCompatibilityFlags = pio.U32BE(b[2:])
	hvc.GeneralConstraintIndicatorFlags = pio.U48BE(b[6:]) << 16
	hvc.GeneralLevelIDC = b[12]
	hvc.MinSpatialSegmentationIDC = pio.U16BE(b[13:]) & 0x0fff
	hvc.ParallelismType = b[15] & 0x03
	hvc.ChromaFormatIDC = b[16] & 0x03
	hvc.BitDepthLumaMinus8 = b[17] & 0x07
	hvc.BitDepthChromaMinus8 = b[18] & 0x0f
	hvc.AvgFrameRate = pio.U16BE(b[19:])
	hvc.ConstantFrameRate = b[21] >> 6
	hvc.NumTemporalLayers = (b[21] >> 3) & 0x07
	hvc.TemporalIDNested = (b[21] >> 2) & 0x01
	hvc.LengthSizeMinusOne = b[21] & 0x03
	declared := int(b[22])
	n = recordHeaderSize

	arrays := 0
	for arrays < declared || n < len(b) {
		if len(b) < n+arrayHeaderSize {
			err = ErrDecconfInvalid
			return
		}
		typ := NalUnitType(b[n] & maskNalUnitType)
		count := int(pio.U16BE(b[n+1:]))
		n += arrayHeaderSize

		for range count {
			if len(b) < n+nalUnitLengthSize {
				err = ErrDecconfInvalid
				return
			}
			size := int(pio.U16BE(b[n:]))
			n += nalUnitLengthSize
			if len(b) < n+size {
				err = ErrDecconfInvalid
				return
			}
			hvc.keep(typ, b[n:n+size])
			n += size
		}
		arrays++
	}

	if declared != arrays {
		hvc.NumOfArrays = uint8(declared) //nolint:gosec // read from a byte
	}
	return
}

func (hvc *HEVCDecoderConfRecord) keep(typ NalUnitType, nalu []byte) {
	switch {
	case typ == NalUnitVps && hvc.VPS == nil:
		hvc.VPS = nalu
	case typ == NalUnitSps && hvc.SPS == nil:
		hvc.SPS = nalu
	case typ == NalUnitPps && hvc.PPS == nil:
		hvc.PPS = nalu
	}
}
