package h264

// Common magic numbers used in the package
const (
	// avcC header byte masks
	maskLengthSizeMinusOne    = 0x03
	maskSPSCount              = 0x1f
	maskLengthSizeMinusOneInv = 0xfc
	maskSPSCountInv           = 0xe0

	// Record layout
	recordVersion       = 1
	recordFixedSize     = 11 // version, profile, compat, level, length size, sps count, sps len, pps count, pps len
	lengthFieldSize     = 2
	lengthSizeMinusOne  = 3
	maxParameterSetSize = 0xffff

	// Scaling values
	defaultScaleValue = 8
	maxScaleValue     = 256
	minDeltaScale     = -128
	maxDeltaScale     = 127

	// Chroma format values
	chromaFormat444 = 3

	// bit_depth_luma_minus8 and bit_depth_chroma_minus8 upper bound
	maxBitDepthMinus8 = 6

	// Scaling list sizes
	scalingListSizeSmall = 16
	scalingListSizeLarge = 64
	scalingListThreshold = 6
	scalingListCount     = 8
	scalingListCount444  = 12

	// pic_order_cnt_type values
	pocType0 = 0
	pocType1 = 1
	pocType2 = 2

	// num_ref_frames_in_pic_order_cnt_cycle upper bound
	maxPOCCycle = 255

	// Macroblock size
	mbSize = 16

	// Crop multiplier
	cropMultiplier = 2

	// Frame height calculation constant
	frameHeightBase = 2

	// NAL header fields
	nalRefIdcShift = 5
	nalRefIdcMask  = 0x03
	nalTypeMask    = 0x1f
)

// IsHighProfile reports whether profile_idc belongs to the family whose SPS carries chroma format,
// bit depth and scaling matrix syntax.
func IsHighProfile(profileIDC uint8) bool {
	switch profileIDC {
	case 100, 110, 122, 144: //nolint:mnd
		return true
	}
	return false
}
