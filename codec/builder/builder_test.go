package builder

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/format/mp4/mp4io"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/sdp"
)

var (
	sps264 = []byte{0x67, 0x64, 0x00, 0x28, 0xac, 0xb4, 0x03, 0xc0, 0x11, 0x3f, 0x2a}
	pps264 = []byte{0x68, 0xee, 0x3c, 0x80}

	vps265 = []byte{
		0x40, 0x01, 0x0c, 0x01, 0xff, 0xff, 0x01, 0x60,
		0x00, 0x00, 0x03, 0x00, 0x90, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x03, 0x00, 0x78, 0x99, 0x98, 0x09,
	}
	sps265 = []byte{
		0x42, 0x01, 0x01, 0x01, 0x60, 0x00, 0x00, 0x03,
		0x00, 0x90, 0x00, 0x00, 0x03, 0x00, 0x00, 0x03,
		0x00, 0x78, 0xa0, 0x03, 0xc0, 0x80, 0x10, 0xe5,
		0x96, 0x66, 0x69, 0x24, 0xca, 0xe0, 0x10, 0x00,
		0x00, 0x03, 0x00, 0x10, 0x00, 0x00, 0x03, 0x01,
		0xe0, 0x80,
	}
	pps265 = []byte{0x44, 0x01, 0xc1, 0x72, 0xb4, 0x62, 0x40}
)

func annexB(units ...[]byte) []byte {
	var b []byte
	for _, u := range units {
		b = append(b, 0, 0, 0, 1)
		b = append(b, u...)
	}
	return b
}

func TestFromAnnexB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  paramset.CodecType
		in   []byte
		tag  string
	}{
		{name: "h264", typ: paramset.H264, in: annexB(sps264, pps264), tag: "avc1.640028"},
		{name: "h265", typ: paramset.H265, in: annexB(vps265, sps265, pps265), tag: "hev1.1.6.L120.90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			par, err := FromAnnexB(tt.typ, tt.in, Options{})
			require.NoError(t, err)
			require.Equal(t, tt.typ, par.Type())

			info := Describe(par)
			require.Equal(t, Info{
				Codec:  tt.typ.String(),
				Tag:    tt.tag,
				Width:  1920,
				Height: 1080,
				Record: par.DecoderConfRecord(),
			}, info)

			again, err := FromRecord(tt.typ, par.DecoderConfRecord())
			require.NoError(t, err)
			require.Equal(t, tt.tag, again.Tag())
		})
	}
}

func TestLegacyArrays(t *testing.T) {
	t.Parallel()

	par, err := FromAnnexB(paramset.H265, annexB(vps265, sps265, pps265), Options{LegacyArrays: true})
	require.NoError(t, err)
	require.Equal(t, byte(2), par.DecoderConfRecord()[22])

	par, err = FromParameterSets(paramset.H265, vps265, sps265, pps265, Options{})
	require.NoError(t, err)
	require.Equal(t, byte(3), par.DecoderConfRecord()[22])
}

func TestBoxRoundTrip(t *testing.T) {
	t.Parallel()

	for _, par := range []paramset.VideoCodecParameters{
		must(FromParameterSets(paramset.H264, nil, sps264, pps264, Options{})),
		must(FromParameterSets(paramset.H265, vps265, sps265, pps265, Options{})),
	} {
		box, err := Box(par)
		require.NoError(t, err)

		var buf bytes.Buffer
		_, err = box.WriteTo(&buf)
		require.NoError(t, err)

		decoded, err := FromBox(&buf)
		require.NoError(t, err)
		require.Equal(t, par.Type(), decoded.Type())
		require.Equal(t, par.DecoderConfRecord(), decoded.DecoderConfRecord())
	}
}

func must(par paramset.VideoCodecParameters, err error) paramset.VideoCodecParameters {
	if err != nil {
		panic(err)
	}
	return par
}

func TestFromBoxRejectsOtherBoxes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := (&mp4io.ConfBox{Type: mp4io.StringToTag("free")}).WriteTo(&buf)
	require.NoError(t, err)

	_, err = FromBox(&buf)
	require.ErrorIs(t, err, utils.ErrMalformedInput)
}

func TestFromSDPMedia(t *testing.T) {
	t.Parallel()

	par, err := FromSDPMedia(sdp.Media{
		Type:               paramset.H264,
		SpropParameterSets: [][]byte{pps264, sps264},
	}, Options{})
	require.NoError(t, err)
	require.Equal(t, "avc1.640028", par.Tag())

	_, err = FromSDPMedia(sdp.Media{Type: paramset.H265, SpropSPS: sps265}, Options{})
	require.ErrorAs(t, err, &utils.NoCodecDataError{})
}

func TestUnknownCodec(t *testing.T) {
	t.Parallel()

	_, err := FromAnnexB(paramset.CodecType(0), annexB(sps264), Options{})
	require.ErrorIs(t, err, utils.ErrUnsupported)
	_, err = FromRecord(paramset.CodecType(0), nil)
	require.ErrorIs(t, err, utils.ErrUnsupported)
}
