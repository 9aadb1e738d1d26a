package h264

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits"
	"github.com/ugparu/paramset/utils/nal"
)

// SPSInfo represents information extracted from a Sequence Parameter Set.
// Width and Height are derived from the macroblock grid and cropping offsets on every call.
type SPSInfo struct {
	ProfileIDC        uint8 // profile_idc
	ConstraintSetFlag uint8 // constraint_set0..5 flags and reserved bits
	LevelIDC          uint8 // level_idc

	PicWidthInMbsMinus1       uint
	PicHeightInMapUnitsMinus1 uint
	FrameMbsOnlyFlag          bool

	CropLeft   uint
	CropRight  uint
	CropTop    uint
	CropBottom uint

	// Extended is set for the high profile family only.
	Extended *ExtendedConfigurationData
}

func (s *SPSInfo) dimensions() (width, height int) {
	frameHeight := frameHeightBase
	if s.FrameMbsOnlyFlag {
		frameHeight--
	}
	//nolint:gosec // ue values are bounded by 2^32
	width = int(s.PicWidthInMbsMinus1+1)*mbSize - cropMultiplier*int(s.CropRight+s.CropLeft)
	//nolint:gosec // ue values are bounded by 2^32
	height = frameHeight*int(s.PicHeightInMapUnitsMinus1+1)*mbSize - cropMultiplier*int(s.CropBottom+s.CropTop)
	return
}

// Width returns the cropped picture width in pixels.
func (s *SPSInfo) Width() uint {
	w, _ := s.dimensions()
	return uint(max(w, 0))
}

// Height returns the cropped picture height in pixels.
func (s *SPSInfo) Height() uint {
	_, h := s.dimensions()
	return uint(max(h, 0))
}

// ParseSPS reads seq_parameter_set_data up to and including the frame cropping fields.
// r must be positioned right after the NAL header and carry RBSP data: emulation prevention
// bytes are not removed here.
func ParseSPS(r io.Reader) (s SPSInfo, err error) {
	br := &bits.GolombBitReader{R: r}

	if s.ProfileIDC, err = br.ReadByte(); err != nil {
		return
	}
	if s.ConstraintSetFlag, err = br.ReadByte(); err != nil {
		return
	}
	if s.LevelIDC, err = br.ReadByte(); err != nil {
		return
	}

	// seq_parameter_set_id
	if _, err = br.ReadUE(); err != nil {
		return
	}

	if IsHighProfile(s.ProfileIDC) {
		if s.Extended, err = readExtendedConfigurationData(br); err != nil {
			return
		}
		if s.Extended.SeqScalingMatrixPresent {
			if err = readScalingMatrix(br, s.Extended); err != nil {
				return
			}
		}
	}

	// log2_max_frame_num_minus4
	if _, err = br.ReadUE(); err != nil {
		return
	}

	if err = skipPicOrderCnt(br); err != nil {
		return
	}

	// num_ref_frames
	if _, err = br.ReadUE(); err != nil {
		return
	}
	// gaps_in_frame_num_value_allowed_flag
	if _, err = br.ReadBit(); err != nil {
		return
	}

	if s.PicWidthInMbsMinus1, err = br.ReadUE(); err != nil {
		return
	}
	if s.PicHeightInMapUnitsMinus1, err = br.ReadUE(); err != nil {
		return
	}

	var flag uint
	if flag, err = br.ReadBit(); err != nil {
		return
	}
	s.FrameMbsOnlyFlag = flag == 1
	if !s.FrameMbsOnlyFlag {
		// mb_adaptive_frame_field_flag
		if _, err = br.ReadBit(); err != nil {
			return
		}
	}

	// direct_8x8_inference_flag
	if _, err = br.ReadBit(); err != nil {
		return
	}

	if flag, err = br.ReadBit(); err != nil {
		return
	}
	if flag == 1 {
		for _, crop := range []*uint{&s.CropLeft, &s.CropRight, &s.CropTop, &s.CropBottom} {
			if *crop, err = br.ReadUE(); err != nil {
				return
			}
		}
	}

	if w, h := s.dimensions(); w <= 0 || h <= 0 {
		err = fmt.Errorf("h264parser: cropping leaves a %dx%d picture: %w", w, h, utils.ErrMalformedInput)
	}
	return
}

// skipPicOrderCnt consumes the pic_order_cnt_type dependent syntax.
func skipPicOrderCnt(br *bits.GolombBitReader) (err error) {
	var pocType uint
	if pocType, err = br.ReadUE(); err != nil {
		return
	}

	switch pocType {
	case pocType0:
		// log2_max_pic_order_cnt_lsb_minus4
		_, err = br.ReadUE()
	case pocType1:
		// delta_pic_order_always_zero_flag
		if _, err = br.ReadBit(); err != nil {
			return
		}
		// offset_for_non_ref_pic, offset_for_top_to_bottom_field
		for range 2 {
			if _, err = br.ReadSE(); err != nil {
				return
			}
		}
		var cycle uint
		if cycle, err = br.ReadUE(); err != nil {
			return
		}
		if cycle > maxPOCCycle {
			return fmt.Errorf("h264parser: num_ref_frames_in_pic_order_cnt_cycle %d out of range: %w",
				cycle, utils.ErrMalformedInput)
		}
		for range cycle {
			if _, err = br.ReadSE(); err != nil {
				return
			}
		}
	case pocType2:
	default:
		err = fmt.Errorf("h264parser: invalid pic_order_cnt_type %d: %w", pocType, utils.ErrMalformedInput)
	}
	return
}

// ParseSPSNALU parses a complete SPS NAL unit, header byte included, as found in Annex-B streams
// and configuration records. Emulation prevention bytes are removed before parsing.
func ParseSPSNALU(nalu []byte) (SPSInfo, error) {
	if len(nalu) == 0 {
		return SPSInfo{}, fmt.Errorf("h264parser: empty SPS: %w", utils.ErrMalformedInput)
	}
	header, err := ParseNalUnitHeader(nalu[0])
	if err != nil {
		return SPSInfo{}, err
	}
	if header.Type != NalUnitTypeSPS {
		return SPSInfo{}, fmt.Errorf("h264parser: expected SPS, got %v: %w", header.Type, utils.ErrMalformedInput)
	}

	return ParseSPS(bytes.NewReader(nal.EmulationPreventionRemove(nalu[1:])))
}
