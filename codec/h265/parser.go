//nolint:mnd // H.265 syntax element widths and PTL layout constants
package h265

import (
	"bytes"
	"fmt"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits"
	"github.com/ugparu/paramset/utils/nal"
)

// SPSInfo holds the seq_parameter_set_rbsp fields needed for an hvcC record and the picture size.
type SPSInfo struct {
	VPSID              uint8
	MaxSubLayersMinus1 uint8
	TemporalIDNested   bool

	GeneralProfileSpace              uint8
	GeneralTierFlag                  uint8
	GeneralProfileIDC                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64 // low 48 bits
	GeneralLevelIDC                  uint8

	ChromaFormat           uint
	SeparateColourPlane    bool
	PicWidthInLumaSamples  uint
	PicHeightInLumaSamples uint

	ConfWinLeftOffset   uint
	ConfWinRightOffset  uint
	ConfWinTopOffset    uint
	ConfWinBottomOffset uint

	BitDepthLumaMinus8          uint
	BitDepthChromaMinus8        uint
	Log2MaxPicOrderCntLsbMinus4 uint
}

// subsampling returns SubWidthC and SubHeightC (Table 6-1).
func (s *SPSInfo) subsampling() (subWidthC, subHeightC uint) {
	if s.SeparateColourPlane {
		return 1, 1
	}
	switch s.ChromaFormat {
	case chromaFormat420:
		return 2, 2
	case chromaFormat422:
		return 2, 1
	}
	return 1, 1
}

// Width returns the picture width after the conformance window is applied.
func (s *SPSInfo) Width() uint {
	sw, _ := s.subsampling()
	crop := sw * (s.ConfWinLeftOffset + s.ConfWinRightOffset)
	if crop >= s.PicWidthInLumaSamples {
		return 0
	}
	return s.PicWidthInLumaSamples - crop
}

// Height returns the picture height after the conformance window is applied.
func (s *SPSInfo) Height() uint {
	_, sh := s.subsampling()
	crop := sh * (s.ConfWinTopOffset + s.ConfWinBottomOffset)
	if crop >= s.PicHeightInLumaSamples {
		return 0
	}
	return s.PicHeightInLumaSamples - crop
}

// NumTemporalLayers is sps_max_sub_layers_minus1 + 1.
func (s *SPSInfo) NumTemporalLayers() uint8 {
	return s.MaxSubLayersMinus1 + 1
}

// ParseSPS parses an SPS NAL unit, two byte header included, up to
// log2_max_pic_order_cnt_lsb_minus4. Emulation prevention bytes are removed first.
func ParseSPS(sps []byte) (ctx SPSInfo, err error) {
	if len(sps) <= nalHeaderSize {
		err = fmt.Errorf("h265parser: SPS of %d bytes: %w", len(sps), utils.ErrMalformedInput)
		return
	}
	if typ := NalUnitTypeOf(sps[0]); typ != NalUnitSps {
		err = fmt.Errorf("h265parser: expected SPS, got %v: %w", typ, utils.ErrMalformedInput)
		return
	}

	br := &bits.GolombBitReader{R: bytes.NewReader(nal.EmulationPreventionRemove(sps[nalHeaderSize:]))}

	var u uint
	if u, err = br.ReadBits(4); err != nil {
		return
	}
	ctx.VPSID = uint8(u) //nolint:gosec // 4 bits
	if u, err = br.ReadBits(3); err != nil {
		return
	}
	ctx.MaxSubLayersMinus1 = uint8(u) //nolint:gosec // 3 bits
	if ctx.MaxSubLayersMinus1 >= maxSubLayers-1 {
		err = fmt.Errorf("h265parser: sps_max_sub_layers_minus1 %d: %w", ctx.MaxSubLayersMinus1, utils.ErrMalformedInput)
		return
	}
	if u, err = br.ReadBit(); err != nil {
		return
	}
	ctx.TemporalIDNested = u == 1

	if err = parsePTL(br, &ctx); err != nil {
		return
	}

	// sps_seq_parameter_set_id
	if _, err = br.ReadUE(); err != nil {
		return
	}
	if ctx.ChromaFormat, err = br.ReadUE(); err != nil {
		return
	}
	if ctx.ChromaFormat > chromaFormat444 {
		err = fmt.Errorf("h265parser: chroma_format_idc %d: %w", ctx.ChromaFormat, utils.ErrMalformedInput)
		return
	}
	if ctx.ChromaFormat == chromaFormat444 {
		if u, err = br.ReadBit(); err != nil {
			return
		}
		ctx.SeparateColourPlane = u == 1
	}
	if ctx.PicWidthInLumaSamples, err = br.ReadUE(); err != nil {
		return
	}
	if ctx.PicHeightInLumaSamples, err = br.ReadUE(); err != nil {
		return
	}

	var conformanceWindowFlag uint
	if conformanceWindowFlag, err = br.ReadBit(); err != nil {
		return
	}
	if conformanceWindowFlag != 0 {
		for _, offset := range []*uint{
			&ctx.ConfWinLeftOffset, &ctx.ConfWinRightOffset, &ctx.ConfWinTopOffset, &ctx.ConfWinBottomOffset,
		} {
			if *offset, err = br.ReadUE(); err != nil {
				return
			}
		}
	}

	if ctx.BitDepthLumaMinus8, err = br.ReadUE(); err != nil {
		return
	}
	if ctx.BitDepthChromaMinus8, err = br.ReadUE(); err != nil {
		return
	}
	if ctx.Log2MaxPicOrderCntLsbMinus4, err = br.ReadUE(); err != nil {
		return
	}

	if ctx.Width() == 0 || ctx.Height() == 0 {
		err = fmt.Errorf("h265parser: conformance window leaves a %dx%d picture: %w",
			ctx.Width(), ctx.Height(), utils.ErrMalformedInput)
	}
	return
}

// parsePTL reads profile_tier_level(1, sps_max_sub_layers_minus1), keeping the general part.
func parsePTL(br *bits.GolombBitReader, ctx *SPSInfo) (err error) {
	var u uint
	if u, err = br.ReadBits(2); err != nil {
		return
	}
	ctx.GeneralProfileSpace = uint8(u) //nolint:gosec // 2 bits
	if u, err = br.ReadBit(); err != nil {
		return
	}
	ctx.GeneralTierFlag = uint8(u) //nolint:gosec // 1 bit
	if u, err = br.ReadBits(5); err != nil {
		return
	}
	ctx.GeneralProfileIDC = uint8(u) //nolint:gosec // 5 bits
	if ctx.GeneralProfileCompatibilityFlags, err = br.ReadBits32(compatFlagsWidth); err != nil {
		return
	}
	if ctx.GeneralConstraintIndicatorFlags, err = br.ReadBits64(constraintWidth); err != nil {
		return
	}
	if u, err = br.ReadBits(8); err != nil {
		return
	}
	ctx.GeneralLevelIDC = uint8(u) //nolint:gosec // 8 bits

	subLayers := int(ctx.MaxSubLayersMinus1)
	if subLayers == 0 {
		return
	}

	profilePresent := make([]uint, subLayers)
	levelPresent := make([]uint, subLayers)
	for i := range subLayers {
		if profilePresent[i], err = br.ReadBit(); err != nil {
			return
		}
		if levelPresent[i], err = br.ReadBit(); err != nil {
			return
		}
	}
	// reserved_zero_2bits
	for range maxSubLayers - subLayers {
		if _, err = br.ReadBits(2); err != nil {
			return
		}
	}
	for i := range subLayers {
		if profilePresent[i] != 0 {
			// sub_layer profile space, tier, idc, compatibility and constraint flags
			if _, err = br.ReadBits64(56); err != nil {
				return
			}
			if _, err = br.ReadBits32(32); err != nil {
				return
			}
		}
		if levelPresent[i] != 0 {
			if _, err = br.ReadBits(8); err != nil {
				return
			}
		}
	}
	return
}
