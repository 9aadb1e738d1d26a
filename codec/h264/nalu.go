package h264

import (
	"fmt"
	"io"

	"github.com/ugparu/paramset/utils"
)

// NalUnitType is the 5-bit nal_unit_type of an H.264 NAL unit header.
// Only the codes listed below are accepted.
type NalUnitType uint8

const (
	NalUnitTypeCodedSliceNonIDR    NalUnitType = 1
	NalUnitTypeCodedSliceDataPartA NalUnitType = 2
	NalUnitTypeCodedSliceDataPartB NalUnitType = 3
	NalUnitTypeCodedSliceDataPartC NalUnitType = 4
	NalUnitTypeCodedSliceIDR       NalUnitType = 5
	NalUnitTypeSEI                 NalUnitType = 6
	NalUnitTypeSPS                 NalUnitType = 7
	NalUnitTypePPS                 NalUnitType = 8
	NalUnitTypeAccessUnitDelimiter NalUnitType = 9
	NalUnitTypeEndOfSequence       NalUnitType = 10
	NalUnitTypeEndOfStream         NalUnitType = 11
	NalUnitTypeFillerData          NalUnitType = 12
	NalUnitTypeSPSExtension        NalUnitType = 13
	NalUnitTypePrefix              NalUnitType = 14
	NalUnitTypeSubsetSPS           NalUnitType = 15
	NalUnitTypeCodedSliceAux       NalUnitType = 19
	NalUnitTypeCodedSliceExtension NalUnitType = 20
	NalUnitTypeCodedSliceDepthView NalUnitType = 21
)

var nalUnitTypeNames = map[NalUnitType]string{
	NalUnitTypeCodedSliceNonIDR:    "CodedSliceNonIDR",
	NalUnitTypeCodedSliceDataPartA: "CodedSliceDataPartA",
	NalUnitTypeCodedSliceDataPartB: "CodedSliceDataPartB",
	NalUnitTypeCodedSliceDataPartC: "CodedSliceDataPartC",
	NalUnitTypeCodedSliceIDR:       "CodedSliceIDR",
	NalUnitTypeSEI:                 "SEI",
	NalUnitTypeSPS:                 "SPS",
	NalUnitTypePPS:                 "PPS",
	NalUnitTypeAccessUnitDelimiter: "AccessUnitDelimiter",
	NalUnitTypeEndOfSequence:       "EndOfSequence",
	NalUnitTypeEndOfStream:         "EndOfStream",
	NalUnitTypeFillerData:          "FillerData",
	NalUnitTypeSPSExtension:        "SPSExtension",
	NalUnitTypePrefix:              "Prefix",
	NalUnitTypeSubsetSPS:           "SubsetSPS",
	NalUnitTypeCodedSliceAux:       "CodedSliceAux",
	NalUnitTypeCodedSliceExtension: "CodedSliceExtension",
	NalUnitTypeCodedSliceDepthView: "CodedSliceDepthView",
}

func (t NalUnitType) String() string {
	if name, ok := nalUnitTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("NalUnitType(%d)", uint8(t))
}

// ParseNalUnitType maps a nal_unit_type code to its NalUnitType.
// Reserved and unspecified codes are malformed input.
func ParseNalUnitType(code uint8) (NalUnitType, error) {
	t := NalUnitType(code)
	if _, ok := nalUnitTypeNames[t]; !ok {
		return 0, fmt.Errorf("h264parser: invalid nal_unit_type %d: %w", code, utils.ErrMalformedInput)
	}
	return t, nil
}

// NalUnit is the classified first byte of a NAL unit.
type NalUnit struct {
	RefIdc uint8 // nal_ref_idc, 0..3
	Type   NalUnitType
}

// ParseNalUnitHeader splits a NAL header byte into nal_ref_idc and the unit type.
// The forbidden_zero_bit is not checked.
func ParseNalUnitHeader(b byte) (NalUnit, error) {
	typ, err := ParseNalUnitType(b & nalTypeMask)
	if err != nil {
		return NalUnit{}, err
	}
	return NalUnit{
		RefIdc: (b >> nalRefIdcShift) & nalRefIdcMask,
		Type:   typ,
	}, nil
}

// ReadNalUnit reads one header byte from r and classifies it.
func ReadNalUnit(r io.Reader) (NalUnit, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return NalUnit{}, &utils.IOError{Op: "h264parser: read nal header", Err: err}
	}
	return ParseNalUnitHeader(b[0])
}
