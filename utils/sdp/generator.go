package sdp

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/utils"
)

// Generate builds an SDP body announcing medias with their parameter sets. Parse reads it back.
func Generate(sess Session, medias []Media) ([]byte, error) {
	sd := &psdp.SessionDescription{
		Origin: psdp.Origin{
			Username:       "-",
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName:      psdp.SessionName("paramset"),
		TimeDescriptions: []psdp.TimeDescription{{}},
		Attributes:       []psdp.Attribute{{Key: "control", Value: "*"}},
	}
	if sess.URI != "" {
		uri, err := url.Parse(sess.URI)
		if err != nil {
			return nil, fmt.Errorf("sdp: session uri: %w: %w", utils.ErrMalformedInput, err)
		}
		sd.URI = uri
	}

	ordered := append([]Media(nil), medias...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PayloadType < ordered[j].PayloadType
	})
	for i := range ordered {
		md, err := ordered[i].mediaDescription()
		if err != nil {
			return nil, err
		}
		sd.MediaDescriptions = append(sd.MediaDescriptions, md)
	}
	return sd.Marshal()
}

func (m *Media) mediaDescription() (*psdp.MediaDescription, error) {
	var encoding string
	var fmtp []string
	switch m.Type {
	case paramset.H264:
		encoding = "H264"
		fmtp = append(fmtp, "packetization-mode=1")
		var sets []string
		for _, unit := range m.SpropParameterSets {
			sets = append(sets, base64.StdEncoding.EncodeToString(unit))
		}
		if len(sets) > 0 {
			fmtp = append(fmtp, "sprop-parameter-sets="+strings.Join(sets, ","))
		}
		if _, sps, _, err := m.ParameterSets(); err == nil && len(sps) >= 4 { //nolint:mnd
			fmtp = append(fmtp, "profile-level-id="+strings.ToUpper(hex.EncodeToString(sps[1:4])))
		}
	case paramset.H265:
		encoding = "H265"
		for _, kv := range []struct {
			key  string
			data []byte
		}{{"sprop-vps", m.SpropVPS}, {"sprop-sps", m.SpropSPS}, {"sprop-pps", m.SpropPPS}} {
			if kv.data != nil {
				fmtp = append(fmtp, kv.key+"="+base64.StdEncoding.EncodeToString(kv.data))
			}
		}
		if m.MaxDONDiff != 0 {
			fmtp = append(fmtp, "sprop-max-don-diff="+strconv.Itoa(m.MaxDONDiff))
		}
	default:
		return nil, fmt.Errorf("sdp: codec %v: %w", m.Type, utils.ErrUnsupported)
	}

	clock := m.ClockRate
	if clock == 0 {
		clock = clockRate
	}
	pt := strconv.Itoa(int(m.PayloadType))
	md := &psdp.MediaDescription{
		MediaName: psdp.MediaName{
			Media:   "video",
			Protos:  []string{"RTP", "AVP"},
			Formats: []string{pt},
		},
	}
	md.WithValueAttribute("rtpmap", pt+" "+encoding+"/"+strconv.Itoa(clock))
	if len(fmtp) > 0 {
		md.WithValueAttribute("fmtp", pt+" "+strings.Join(fmtp, "; "))
	}
	if m.Control != "" {
		md.WithValueAttribute("control", m.Control)
	}
	return md, nil
}
