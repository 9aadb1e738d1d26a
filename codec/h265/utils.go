package h265

import "fmt"

// NalUnitType is the 6-bit nal_unit_type of an H.265 NAL unit header.
type NalUnitType uint8

const (
	NalUnitCodedSliceTrailN    NalUnitType = 0
	NalUnitCodedSliceTrailR    NalUnitType = 1
	NalUnitCodedSliceBlaWLp    NalUnitType = 16
	NalUnitCodedSliceIdrWRadl  NalUnitType = 19
	NalUnitCodedSliceIdrNLp    NalUnitType = 20
	NalUnitCodedSliceCra       NalUnitType = 21
	NalUnitReservedIrapVcl23   NalUnitType = 23
	NalUnitVps                 NalUnitType = 32
	NalUnitSps                 NalUnitType = 33
	NalUnitPps                 NalUnitType = 34
	NalUnitAccessUnitDelimiter NalUnitType = 35
	NalUnitEos                 NalUnitType = 36
	NalUnitEob                 NalUnitType = 37
	NalUnitFillerData          NalUnitType = 38
	NalUnitPrefixSei           NalUnitType = 39
	NalUnitSuffixSei           NalUnitType = 40
	NalUnitAggregationPacket   NalUnitType = 48 // RFC 7798 AP
	NalUnitFragmentationUnit   NalUnitType = 49 // RFC 7798 FU
)

func (t NalUnitType) String() string {
	switch t {
	case NalUnitVps:
		return "VPS"
	case NalUnitSps:
		return "SPS"
	case NalUnitPps:
		return "PPS"
	case NalUnitAccessUnitDelimiter:
		return "AUD"
	case NalUnitPrefixSei, NalUnitSuffixSei:
		return "SEI"
	case NalUnitAggregationPacket:
		return "AP"
	case NalUnitFragmentationUnit:
		return "FU"
	}
	if t.IsIRAP() {
		return fmt.Sprintf("IRAP(%d)", uint8(t))
	}
	return fmt.Sprintf("NalUnitType(%d)", uint8(t))
}

// IsIRAP reports whether t is one of the intra random access point slice types.
func (t NalUnitType) IsIRAP() bool {
	return t >= NalUnitCodedSliceBlaWLp && t <= NalUnitReservedIrapVcl23
}

// NalUnitTypeOf extracts nal_unit_type from the first byte of a two byte NAL header.
func NalUnitTypeOf(b byte) NalUnitType {
	return NalUnitType((b >> 1) & maskNalUnitType)
}

// Common magic numbers used in the package
const (
	maskNalUnitType  = 0x3f
	nalHeaderSize    = 2
	maxSubLayers     = 8
	chromaFormat444  = 3
	chromaFormat420  = 1
	chromaFormat422  = 2
	compatFlagsWidth = 32
	constraintWidth  = 48

	// hvcC layout
	recordVersion       = 1
	recordHeaderSize    = 23
	arrayHeaderSize     = 3
	nalUnitLengthSize   = 2
	maxParameterSetSize = 0xffff
	lengthSizeMinusOne  = 3
)
