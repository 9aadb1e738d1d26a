package h264

import (
	"fmt"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits"
)

// ExtendedConfigurationData holds the high profile part of an SPS.
// SeparateColorPlane is set if and only if ChromaFormat is 3. The scaling list slices are
// filled only when SeqScalingMatrixPresent is true: ScalingList4x4 has six entries and
// ScalingList8x8 two (four more for 4:4:4), each paired with its UseDefault flag.
type ExtendedConfigurationData struct {
	ChromaFormat                uint
	SeparateColorPlane          *bool
	BitDepthLumaMinus8          uint
	BitDepthChromaMinus8        uint
	QPPrimeYZeroTransformBypass bool
	SeqScalingMatrixPresent     bool

	ScalingList4x4           [][scalingListSizeSmall]uint8
	ScalingList4x4UseDefault []bool
	ScalingList8x8           [][scalingListSizeLarge]uint8
	ScalingList8x8UseDefault []bool
}

// readExtendedConfigurationData reads the fields shared by the SPS and the avcC extension, ending
// with seq_scaling_matrix_present_flag. The scaling lists themselves are left to the caller.
func readExtendedConfigurationData(r *bits.GolombBitReader) (ext *ExtendedConfigurationData, err error) {
	ext = &ExtendedConfigurationData{}

	if ext.ChromaFormat, err = r.ReadUE(); err != nil {
		return
	}
	if ext.ChromaFormat > chromaFormat444 {
		err = fmt.Errorf("h264parser: chroma_format_idc %d out of range: %w", ext.ChromaFormat, utils.ErrMalformedInput)
		return
	}
	if ext.ChromaFormat == chromaFormat444 {
		var bit uint
		if bit, err = r.ReadBit(); err != nil {
			return
		}
		separate := bit == 1
		ext.SeparateColorPlane = &separate
	}
	if ext.BitDepthLumaMinus8, err = r.ReadUE(); err != nil {
		return
	}
	if ext.BitDepthChromaMinus8, err = r.ReadUE(); err != nil {
		return
	}
	if ext.BitDepthLumaMinus8 > maxBitDepthMinus8 || ext.BitDepthChromaMinus8 > maxBitDepthMinus8 {
		err = fmt.Errorf("h264parser: bit depth offsets %d/%d out of range: %w",
			ext.BitDepthLumaMinus8, ext.BitDepthChromaMinus8, utils.ErrMalformedInput)
		return
	}

	var bit uint
	if bit, err = r.ReadBit(); err != nil {
		return
	}
	ext.QPPrimeYZeroTransformBypass = bit == 1

	if bit, err = r.ReadBit(); err != nil {
		return
	}
	ext.SeqScalingMatrixPresent = bit == 1
	return
}
