// Package builder picks the H.264 or H.265 constructors for a codec type and converts codec
// parameters to the forms the tools emit.
package builder

import (
	"fmt"
	"io"

	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec/h264"
	"github.com/ugparu/paramset/codec/h265"
	"github.com/ugparu/paramset/format/mp4/mp4io"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/sdp"
)

// Options tune the records built from parameter sets.
type Options struct {
	// LegacyArrays writes h265.LegacyNumOfArrays as the hvcC numOfArrays byte.
	LegacyArrays bool
}

func (o Options) h265() []h265.RecordOption {
	if o.LegacyArrays {
		return []h265.RecordOption{h265.WithNumOfArrays(h265.LegacyNumOfArrays)}
	}
	return nil
}

func unsupported(typ paramset.CodecType) error {
	return fmt.Errorf("builder: codec %v: %w", typ, utils.ErrUnsupported)
}

// FromAnnexB builds parameters from the first parameter sets of an Annex-B buffer.
func FromAnnexB(typ paramset.CodecType, b []byte, opt Options) (paramset.VideoCodecParameters, error) {
	switch typ {
	case paramset.H264:
		par, err := h264.NewCodecDataFromAnnexB(b)
		if err != nil {
			return nil, err
		}
		return &par, nil
	case paramset.H265:
		par, err := h265.NewCodecDataFromAnnexB(b, opt.h265()...)
		if err != nil {
			return nil, err
		}
		return &par, nil
	}
	return nil, unsupported(typ)
}

// FromParameterSets builds parameters from individual units. vps is ignored for H.264.
func FromParameterSets(typ paramset.CodecType, vps, sps, pps []byte, opt Options) (paramset.VideoCodecParameters, error) {
	switch typ {
	case paramset.H264:
		par, err := h264.NewCodecDataFromSPSAndPPS(sps, pps)
		if err != nil {
			return nil, err
		}
		return &par, nil
	case paramset.H265:
		par, err := h265.NewCodecDataFromVPSAndSPSAndPPS(vps, sps, pps, opt.h265()...)
		if err != nil {
			return nil, err
		}
		return &par, nil
	}
	return nil, unsupported(typ)
}

// FromRecord parses an unframed avcC or hvcC body.
func FromRecord(typ paramset.CodecType, record []byte) (paramset.VideoCodecParameters, error) {
	switch typ {
	case paramset.H264:
		par, err := h264.NewCodecDataFromAVCDecoderConfRecord(record)
		if err != nil {
			return nil, err
		}
		return &par, nil
	case paramset.H265:
		par, err := h265.NewCodecDataFromHEVCDecoderConfRecord(record)
		if err != nil {
			return nil, err
		}
		return &par, nil
	}
	return nil, unsupported(typ)
}

// FromBox reads an avcC or hvcC box and parses the record it frames.
func FromBox(r io.Reader) (paramset.VideoCodecParameters, error) {
	box, err := mp4io.ReadConfBox(r)
	if err != nil {
		return nil, err
	}
	switch box.Tag() {
	case mp4io.AVCC:
		return FromRecord(paramset.H264, box.Data)
	default:
		return FromRecord(paramset.H265, box.Data)
	}
}

// FromSDPMedia builds parameters from the sprop attributes of an SDP media.
func FromSDPMedia(media sdp.Media, opt Options) (paramset.VideoCodecParameters, error) {
	vps, sps, pps, err := media.ParameterSets()
	if err != nil {
		return nil, err
	}
	return FromParameterSets(media.Type, vps, sps, pps, opt)
}

// Box frames the record of par as avcC or hvcC.
func Box(par paramset.VideoCodecParameters) (*mp4io.ConfBox, error) {
	switch par.Type() {
	case paramset.H264:
		return mp4io.NewAVCConfBox(par.DecoderConfRecord()), nil
	case paramset.H265:
		return mp4io.NewHEVCConfBox(par.DecoderConfRecord()), nil
	}
	return nil, unsupported(par.Type())
}

// Info is a JSON friendly summary of codec parameters. Record is base64 encoded by encoding/json.
type Info struct {
	Codec  string `json:"codec"`
	Tag    string `json:"tag"`
	Width  uint   `json:"width"`
	Height uint   `json:"height"`
	Record []byte `json:"record"`
}

func Describe(par paramset.VideoCodecParameters) Info {
	return Info{
		Codec:  par.Type().String(),
		Tag:    par.Tag(),
		Width:  par.Width(),
		Height: par.Height(),
		Record: par.DecoderConfRecord(),
	}
}
