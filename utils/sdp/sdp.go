// Package sdp reads and writes the parameter-set attributes of H.264 and H.265 media
// descriptions (RFC 6184 sprop-parameter-sets, RFC 7798 sprop-vps/sps/pps).
package sdp

import (
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
	"github.com/ugparu/paramset"
)

const clockRate = 90000

// Session represents the information related to an SDP session.
type Session struct {
	URI string
}

// Media represents one H.264 or H.265 media description.
type Media struct {
	AVType      string
	Type        paramset.CodecType
	PayloadType uint8
	Control     string
	ClockRate   int

	// SpropParameterSets holds the H.264 units in the order they are listed, usually SPS then PPS.
	SpropParameterSets [][]byte
	SpropVPS           []byte
	SpropSPS           []byte
	SpropPPS           []byte
	// MaxDONDiff is sprop-max-don-diff. A non-zero value means RTP payloads carry DONL fields.
	MaxDONDiff int
}

func attribute(attributes []psdp.Attribute, key string) (string, bool) {
	for _, attr := range attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// formatAttribute returns the value of an rtpmap or fmtp attribute for payloadType with the
// leading payload type removed.
func formatAttribute(attributes []psdp.Attribute, payloadType uint8, key string) string {
	for _, attr := range attributes {
		if attr.Key != key {
			continue
		}
		parts := strings.SplitN(strings.TrimSpace(attr.Value), " ", 2) //nolint:mnd
		if len(parts) != 2 {                                           //nolint:mnd
			continue
		}
		if tmp, err := strconv.ParseUint(parts[0], 10, 8); err == nil && uint8(tmp) == payloadType {
			return parts[1]
		}
	}
	return ""
}

func codecAndClock(rtpMap string) (string, int) {
	parts := strings.SplitN(rtpMap, "/", 2) //nolint:mnd
	if len(parts) != 2 {                    //nolint:mnd
		return "", 0
	}
	clock, _ := strconv.Atoi(strings.SplitN(parts[1], "/", 2)[0]) //nolint:mnd
	return parts[0], clock
}
