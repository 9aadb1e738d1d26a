package h264

import (
	"errors"
	"fmt"

	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/logger"
	"github.com/ugparu/paramset/utils/nal"
)

// CodecParameters is an H.264 stream configuration built from its parameter sets.
type CodecParameters struct {
	codec.BaseParameters
	Record     []byte
	RecordInfo AVCDecoderConfRecord
	SPSInfo    SPSInfo
}

// NewCodecDataFromSPSAndPPS parses sps and serializes a configuration record holding both units.
// Both arguments are complete NAL units, header byte included.
func NewCodecDataFromSPSAndPPS(sps, pps []byte) (codecPar CodecParameters, err error) {
	if codecPar.SPSInfo, err = ParseSPSNALU(sps); err != nil {
		err = fmt.Errorf("h264parser: parse SPS failed: %w", err)
		return
	}
	if len(pps) == 0 {
		err = fmt.Errorf("h264parser: empty PPS: %w", utils.ErrMalformedInput)
		return
	}

	codecPar.RecordInfo = AVCDecoderConfRecord{
		AVCProfileIndication: codecPar.SPSInfo.ProfileIDC,
		ProfileCompatibility: codecPar.SPSInfo.ConstraintSetFlag,
		AVCLevelIndication:   codecPar.SPSInfo.LevelIDC,
		SPS:                  sps,
		PPS:                  pps,
		Extended:             codecPar.SPSInfo.Extended,
	}
	if codecPar.Record, err = codecPar.RecordInfo.Marshal(); err != nil {
		return
	}
	codecPar.CodecType = paramset.H264

	logger.Debugf(&codecPar, "profile=%d level=%d %dx%d",
		codecPar.SPSInfo.ProfileIDC, codecPar.SPSInfo.LevelIDC, codecPar.Width(), codecPar.Height())
	return
}

// NewCodecDataFromAnnexB picks the first SPS and the first PPS of an Annex-B buffer.
// Other units are skipped; a buffer without both sets yields utils.NoCodecDataError.
func NewCodecDataFromAnnexB(b []byte) (codecPar CodecParameters, err error) {
	units, err := nal.NewAnnexBUnits(b)
	if err != nil {
		return
	}

	var sps, pps []byte
	for unit := range units.All() {
		if len(unit) == 0 {
			continue
		}
		header, herr := ParseNalUnitHeader(unit[0])
		if herr != nil {
			logger.Tracef(&codecPar, "skip unit: %v", herr)
			continue
		}
		switch {
		case header.Type == NalUnitTypeSPS && sps == nil:
			sps = unit
		case header.Type == NalUnitTypePPS && pps == nil:
			pps = unit
		default:
			logger.Tracef(&codecPar, "skip %v unit of %d bytes", header.Type, len(unit))
		}
		if sps != nil && pps != nil {
			break
		}
	}
	if sps == nil || pps == nil {
		err = utils.NoCodecDataError{}
		return
	}
	return NewCodecDataFromSPSAndPPS(sps, pps)
}

// NewCodecDataFromAVCDecoderConfRecord parses an avcC body. The record bytes are kept as given.
func NewCodecDataFromAVCDecoderConfRecord(record []byte) (codecPar CodecParameters, err error) {
	codecPar.Record = record
	if _, err = (&codecPar.RecordInfo).Unmarshal(record); err != nil {
		return
	}
	if len(codecPar.RecordInfo.SPS) == 0 {
		err = errors.New("h264parser: no SPS found in AVCDecoderConfRecord")
		return
	}
	if len(codecPar.RecordInfo.PPS) == 0 {
		err = errors.New("h264parser: no PPS found in AVCDecoderConfRecord")
		return
	}
	if codecPar.SPSInfo, err = ParseSPSNALU(codecPar.RecordInfo.SPS); err != nil {
		err = fmt.Errorf("h264parser: parse SPS failed: %w", err)
		return
	}
	if codecPar.RecordInfo.Extended == nil {
		codecPar.RecordInfo.Extended = codecPar.SPSInfo.Extended
	}

	codecPar.CodecType = paramset.H264
	return
}

func (par *CodecParameters) DecoderConfRecord() []byte {
	return par.Record
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

func (par *CodecParameters) Tag() string {
	return fmt.Sprintf("avc1.%02X%02X%02X",
		par.RecordInfo.AVCProfileIndication, par.RecordInfo.ProfileCompatibility, par.RecordInfo.AVCLevelIndication)
}

var _ paramset.VideoCodecParameters = (*CodecParameters)(nil)
