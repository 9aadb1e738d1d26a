package sdp

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec/h264"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/logger"
)

// Parse decodes an SDP body and returns the H.264 and H.265 video medias it describes.
// Other medias are skipped. An fmtp attribute with an undecodable parameter set is an error.
func Parse(content []byte) (sess Session, medias []Media, err error) {
	var sd psdp.SessionDescription
	if err = sd.Unmarshal(content); err != nil {
		err = fmt.Errorf("sdp: %w: %w", utils.ErrMalformedInput, err)
		return
	}
	if sd.URI != nil {
		sess.URI = sd.URI.String()
	}

	for _, md := range sd.MediaDescriptions {
		if md.MediaName.Media != "video" {
			continue
		}
		for _, format := range md.MediaName.Formats {
			var media Media
			var ok bool
			if media, ok, err = parseMedia(md, format); err != nil {
				return
			}
			if ok {
				medias = append(medias, media)
			}
		}
	}
	return
}

func parseMedia(md *psdp.MediaDescription, format string) (media Media, ok bool, err error) {
	tmp, err := strconv.ParseUint(format, 10, 8)
	if err != nil {
		err = fmt.Errorf("sdp: payload type %q: %w", format, utils.ErrMalformedInput)
		return
	}
	media.AVType = md.MediaName.Media
	media.PayloadType = uint8(tmp)

	codec, clock := codecAndClock(formatAttribute(md.Attributes, media.PayloadType, "rtpmap"))
	if media.Type, err = paramset.ParseCodecType(codec); err != nil {
		logger.Debugf(&media, "skip payload type %d: %v", media.PayloadType, err)
		err = nil
		return
	}
	media.ClockRate = clock
	media.Control, _ = attribute(md.Attributes, "control")

	if err = media.parseFmtp(formatAttribute(md.Attributes, media.PayloadType, "fmtp")); err != nil {
		return
	}
	ok = true
	return
}

func (m *Media) parseFmtp(fmtp string) error {
	for _, kv := range strings.Split(fmtp, ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		key, val, found := strings.Cut(kv, "=")
		if !found {
			return fmt.Errorf("sdp: fmtp field %q: %w", kv, utils.ErrMalformedInput)
		}

		var err error
		switch key {
		case "sprop-parameter-sets":
			for _, field := range strings.Split(val, ",") {
				if field == "" {
					continue
				}
				var decoded []byte
				if decoded, err = base64.StdEncoding.DecodeString(field); err != nil {
					break
				}
				m.SpropParameterSets = append(m.SpropParameterSets, decoded)
			}
		case "sprop-vps":
			m.SpropVPS, err = base64.StdEncoding.DecodeString(val)
		case "sprop-sps":
			m.SpropSPS, err = base64.StdEncoding.DecodeString(val)
		case "sprop-pps":
			m.SpropPPS, err = base64.StdEncoding.DecodeString(val)
		case "sprop-max-don-diff":
			m.MaxDONDiff, err = strconv.Atoi(val)
		}
		if err != nil {
			return fmt.Errorf("sdp: invalid %s: %w: %w", key, utils.ErrMalformedInput, err)
		}
	}
	return nil
}

// ParameterSets returns the VPS, SPS and PPS carried by the media. For H.264 the VPS is nil and
// units are told apart by their NAL header, so a PPS listed first is still found.
func (m *Media) ParameterSets() (vps, sps, pps []byte, err error) {
	switch m.Type {
	case paramset.H264:
		for _, unit := range m.SpropParameterSets {
			if len(unit) == 0 {
				continue
			}
			hdr, herr := h264.ParseNalUnitHeader(unit[0])
			if herr != nil {
				logger.Debugf(m, "skip sprop unit: %v", herr)
				continue
			}
			switch hdr.Type {
			case h264.NalUnitTypeSPS:
				if sps == nil {
					sps = unit
				}
			case h264.NalUnitTypePPS:
				if pps == nil {
					pps = unit
				}
			}
		}
	case paramset.H265:
		vps, sps, pps = m.SpropVPS, m.SpropSPS, m.SpropPPS
		if len(vps) == 0 {
			err = utils.NoCodecDataError{}
			return
		}
	}
	if len(sps) == 0 || len(pps) == 0 {
		err = utils.NoCodecDataError{}
	}
	return
}

func (m *Media) String() string {
	return fmt.Sprintf("SDP_MEDIA pt=%d codec=%v", m.PayloadType, m.Type)
}
