package sdp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/utils"
)

var (
	sps264 = []byte{0x67, 0x64, 0x00, 0x28, 0xac, 0xb4, 0x03, 0xc0, 0x11, 0x3f, 0x2a}
	pps264 = []byte{0x68, 0xee, 0x3c, 0x80}

	vps265 = []byte{
		0x40, 0x01, 0x0c, 0x01, 0xff, 0xff, 0x01, 0x60,
		0x00, 0x00, 0x03, 0x00, 0x90, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x03, 0x00, 0x78, 0x99, 0x98, 0x09,
	}
	pps265 = []byte{0x44, 0x01, 0xc1, 0x72, 0xb4, 0x62, 0x40}
)

func sdpBody(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var camera = sdpBody(
	"v=0",
	"o=- 1 1 IN IP4 192.168.1.10",
	"s=Session",
	"u=rtsp://192.168.1.10/live",
	"t=0 0",
	"m=audio 0 RTP/AVP 8",
	"a=rtpmap:8 PCMA/8000",
	"m=video 0 RTP/AVP 96",
	"a=rtpmap:96 H264/90000",
	"a=fmtp:96 packetization-mode=1; sprop-parameter-sets=aO48gA==,Z2QAKKy0A8ARPyo=; profile-level-id=640028",
	"a=control:trackID=1",
	"m=video 0 RTP/AVP 97",
	"a=rtpmap:97 H265/90000",
	"a=fmtp:97 sprop-vps=QAEMAf//AWAAAAMAkAAAAwAAAwB4mZgJ; "+
		"sprop-sps=QgEBAWAAAAMAkAAAAwAAAwB4oAPAgBDllmZpJMrgEAAAAwAQAAADAeCA; "+
		"sprop-pps=RAHBcrRiQA==; sprop-max-don-diff=2",
	"a=control:trackID=2",
	"m=video 0 RTP/AVP 98",
	"a=rtpmap:98 VP8/90000",
)

func TestParse(t *testing.T) {
	t.Parallel()

	sess, medias, err := Parse(camera)
	require.NoError(t, err)
	require.Equal(t, "rtsp://192.168.1.10/live", sess.URI)
	require.Len(t, medias, 2)

	avc := medias[0]
	require.Equal(t, paramset.H264, avc.Type)
	require.Equal(t, uint8(96), avc.PayloadType)
	require.Equal(t, 90000, avc.ClockRate)
	require.Equal(t, "trackID=1", avc.Control)
	require.Equal(t, [][]byte{pps264, sps264}, avc.SpropParameterSets)

	hevc := medias[1]
	require.Equal(t, paramset.H265, hevc.Type)
	require.Equal(t, uint8(97), hevc.PayloadType)
	require.Equal(t, vps265, hevc.SpropVPS)
	require.Equal(t, pps265, hevc.SpropPPS)
	require.Len(t, hevc.SpropSPS, 42)
	require.Equal(t, 2, hevc.MaxDONDiff)
}

func TestMediaParameterSets(t *testing.T) {
	t.Parallel()

	_, medias, err := Parse(camera)
	require.NoError(t, err)

	vps, sps, pps, err := medias[0].ParameterSets()
	require.NoError(t, err)
	require.Nil(t, vps)
	require.Equal(t, sps264, sps)
	require.Equal(t, pps264, pps)

	vps, sps, pps, err = medias[1].ParameterSets()
	require.NoError(t, err)
	require.Equal(t, vps265, vps)
	require.Len(t, sps, 42)
	require.Equal(t, pps265, pps)
}

func TestMediaParameterSetsMissing(t *testing.T) {
	t.Parallel()

	m := Media{Type: paramset.H264, SpropParameterSets: [][]byte{sps264}}
	_, _, _, err := m.ParameterSets()
	require.ErrorAs(t, err, &utils.NoCodecDataError{})

	m = Media{Type: paramset.H265, SpropSPS: sps264, SpropPPS: pps265}
	_, _, _, err = m.ParameterSets()
	require.ErrorAs(t, err, &utils.NoCodecDataError{})
}

func TestParseInvalidSprop(t *testing.T) {
	t.Parallel()

	_, _, err := Parse(sdpBody(
		"v=0",
		"o=- 1 1 IN IP4 127.0.0.1",
		"s=Session",
		"t=0 0",
		"m=video 0 RTP/AVP 96",
		"a=rtpmap:96 H264/90000",
		"a=fmtp:96 sprop-parameter-sets=!!!,Z2QAKKy0A8ARPyo=",
	))
	require.ErrorIs(t, err, utils.ErrMalformedInput)
}

func TestParseNotSDP(t *testing.T) {
	t.Parallel()

	_, _, err := Parse([]byte("RTSP/1.0 200 OK\r\n"))
	require.ErrorIs(t, err, utils.ErrMalformedInput)
}

func TestGenerateParseRoundTrip(t *testing.T) {
	t.Parallel()

	in := []Media{
		{
			Type:        paramset.H265,
			PayloadType: 97,
			Control:     "trackID=2",
			SpropVPS:    vps265,
			SpropSPS:    sps264,
			SpropPPS:    pps265,
			MaxDONDiff:  1,
		},
		{
			Type:               paramset.H264,
			PayloadType:        96,
			Control:            "trackID=1",
			SpropParameterSets: [][]byte{sps264, pps264},
		},
	}

	out, err := Generate(Session{URI: "rtsp://example.com/live"}, in)
	require.NoError(t, err)
	require.Contains(t, string(out), "profile-level-id=640028")

	sess, medias, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, "rtsp://example.com/live", sess.URI)
	require.Len(t, medias, 2)

	require.Equal(t, uint8(96), medias[0].PayloadType)
	require.Equal(t, paramset.H264, medias[0].Type)
	require.Equal(t, [][]byte{sps264, pps264}, medias[0].SpropParameterSets)
	require.Equal(t, "trackID=1", medias[0].Control)

	require.Equal(t, uint8(97), medias[1].PayloadType)
	require.Equal(t, vps265, medias[1].SpropVPS)
	require.Equal(t, 1, medias[1].MaxDONDiff)
	require.Equal(t, 90000, medias[1].ClockRate)
}

func TestGenerateUnsupportedCodec(t *testing.T) {
	t.Parallel()

	_, err := Generate(Session{}, []Media{{PayloadType: 96}})
	require.ErrorIs(t, err, utils.ErrUnsupported)
}
