package h265

import (
	"errors"
	"fmt"
	mathbits "math/bits"
	"strconv"
	"strings"

	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/logger"
	"github.com/ugparu/paramset/utils/nal"
)

// CodecParameters is an H.265 stream configuration built from its parameter sets.
type CodecParameters struct {
	codec.BaseParameters
	Record     []byte
	RecordInfo HEVCDecoderConfRecord
	SPSInfo    SPSInfo
}

// RecordOption adjusts the record assembled by the NewCodecData constructors before it is serialized.
type RecordOption func(*HEVCDecoderConfRecord)

// WithNumOfArrays pins the numOfArrays byte, for example to LegacyNumOfArrays.
func WithNumOfArrays(n uint8) RecordOption {
	return func(r *HEVCDecoderConfRecord) {
		r.NumOfArrays = n
	}
}

// NewCodecDataFromVPSAndSPSAndPPS parses sps and serializes a configuration record holding all three units.
// The arguments are complete NAL units, two byte header included.
func NewCodecDataFromVPSAndSPSAndPPS(vps, sps, pps []byte, opts ...RecordOption) (codecPar CodecParameters, err error) {
	if len(vps) == 0 || len(pps) == 0 {
		err = fmt.Errorf("h265parser: empty VPS or PPS: %w", utils.ErrMalformedInput)
		return
	}
	if codecPar.SPSInfo, err = ParseSPS(sps); err != nil {
		err = fmt.Errorf("h265parser: parse SPS failed: %w", err)
		return
	}

	info := &codecPar.SPSInfo
	codecPar.RecordInfo = HEVCDecoderConfRecord{
		GeneralProfileSpace:              info.GeneralProfileSpace,
		GeneralTierFlag:                  info.GeneralTierFlag,
		GeneralProfileIDC:                info.GeneralProfileIDC,
		GeneralProfileCompatibilityFlags: info.GeneralProfileCompatibilityFlags,
		GeneralConstraintIndicatorFlags:  info.GeneralConstraintIndicatorFlags << 16, //nolint:mnd // 48 flag bits on top
		GeneralLevelIDC:                  info.GeneralLevelIDC,
		ChromaFormatIDC:                  uint8(info.ChromaFormat),         //nolint:gosec // <= 3
		BitDepthLumaMinus8:               uint8(info.BitDepthLumaMinus8),   //nolint:gosec // masked on write
		BitDepthChromaMinus8:             uint8(info.BitDepthChromaMinus8), //nolint:gosec // masked on write
		NumTemporalLayers:                info.NumTemporalLayers(),
		LengthSizeMinusOne:               lengthSizeMinusOne,
		VPS:                              vps,
		SPS:                              sps,
		PPS:                              pps,
	}
	if info.TemporalIDNested {
		codecPar.RecordInfo.TemporalIDNested = 1
	}
	for _, opt := range opts {
		opt(&codecPar.RecordInfo)
	}

	if codecPar.Record, err = codecPar.RecordInfo.Marshal(); err != nil {
		return
	}
	codecPar.CodecType = paramset.H265

	logger.Debugf(&codecPar, "profile=%d level=%d %dx%d",
		info.GeneralProfileIDC, info.GeneralLevelIDC, codecPar.Width(), codecPar.Height())
	return
}

// NewCodecDataFromAnnexB picks the first VPS, SPS and PPS of an Annex-B buffer.
// A buffer missing any of them yields utils.NoCodecDataError.
func NewCodecDataFromAnnexB(b []byte, opts ...RecordOption) (codecPar CodecParameters, err error) {
	units, err := nal.NewAnnexBUnits(b)
	if err != nil {
		return
	}

	var vps, sps, pps []byte
	for unit := range units.All() {
		if len(unit) < nalHeaderSize {
			continue
		}
		switch typ := NalUnitTypeOf(unit[0]); {
		case typ == NalUnitVps && vps == nil:
			vps = unit
		case typ == NalUnitSps && sps == nil:
			sps = unit
		case typ == NalUnitPps && pps == nil:
			pps = unit
		default:
			logger.Tracef(&codecPar, "skip %v unit of %d bytes", typ, len(unit))
		}
		if vps != nil && sps != nil && pps != nil {
			break
		}
	}
	if vps == nil || sps == nil || pps == nil {
		err = utils.NoCodecDataError{}
		return
	}
	return NewCodecDataFromVPSAndSPSAndPPS(vps, sps, pps, opts...)
}

// NewCodecDataFromHEVCDecoderConfRecord parses an hvcC body. The record bytes are kept as given.
func NewCodecDataFromHEVCDecoderConfRecord(record []byte) (codecPar CodecParameters, err error) {
	codecPar.Record = record
	if _, err = (&codecPar.RecordInfo).Unmarshal(record); err != nil {
		return
	}
	if len(codecPar.RecordInfo.SPS) == 0 {
		err = errors.New("h265parser: no SPS found in HEVCDecoderConfRecord")
		return
	}
	if len(codecPar.RecordInfo.PPS) == 0 {
		err = errors.New("h265parser: no PPS found in HEVCDecoderConfRecord")
		return
	}
	if len(codecPar.RecordInfo.VPS) == 0 {
		err = errors.New("h265parser: no VPS found in HEVCDecoderConfRecord")
		return
	}
	if codecPar.SPSInfo, err = ParseSPS(codecPar.RecordInfo.SPS); err != nil {
		err = fmt.Errorf("h265parser: parse SPS failed: %w", err)
		return
	}
	codecPar.CodecType = paramset.H265
	return
}

func (par *CodecParameters) DecoderConfRecord() []byte {
	return par.Record
}

func (par *CodecParameters) VPS() []byte {
	return par.RecordInfo.VPS
}

func (par *CodecParameters) SPS() []byte {
	return par.RecordInfo.SPS
}

func (par *CodecParameters) PPS() []byte {
	return par.RecordInfo.PPS
}

func (par *CodecParameters) Width() uint {
	return par.SPSInfo.Width()
}

func (par *CodecParameters) Height() uint {
	return par.SPSInfo.Height()
}

// Tag returns the ISO/IEC 14496-15 codec string, e.g. hev1.1.6.L120.90.
func (par *CodecParameters) Tag() string {
	rec := &par.RecordInfo

	var sb strings.Builder
	sb.WriteString("hev1.")
	if rec.GeneralProfileSpace > 0 {
		sb.WriteByte('A' + rec.GeneralProfileSpace - 1)
	}
	sb.WriteString(strconv.Itoa(int(rec.GeneralProfileIDC)))
	sb.WriteByte('.')
	fmt.Fprintf(&sb, "%X", mathbits.Reverse32(rec.GeneralProfileCompatibilityFlags))
	if rec.GeneralTierFlag == 0 {
		sb.WriteString(".L")
	} else {
		sb.WriteString(".H")
	}
	sb.WriteString(strconv.Itoa(int(rec.GeneralLevelIDC)))

	constraints := make([]byte, 0, 6) //nolint:mnd // six flag bytes
	for shift := 56; shift >= 16; shift -= 8 {
		constraints = append(constraints, byte(rec.GeneralConstraintIndicatorFlags>>shift))
	}
	for len(constraints) > 0 && constraints[len(constraints)-1] == 0 {
		constraints = constraints[:len(constraints)-1]
	}
	for _, c := range constraints {
		fmt.Fprintf(&sb, ".%X", c)
	}
	return sb.String()
}

var _ paramset.VideoCodecParameters = (*CodecParameters)(nil)
