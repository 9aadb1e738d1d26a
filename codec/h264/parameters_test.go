package h264

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/utils"
)

func annexB(units ...[]byte) []byte {
	var b []byte
	for _, u := range units {
		b = append(b, 0, 0, 0, 1)
		b = append(b, u...)
	}
	return b
}

func TestNewCodecDataFromAnnexB(t *testing.T) {
	t.Parallel()

	aud := []byte{0x09, 0xf0}
	idr := []byte{0x65, 0x88, 0x84, 0x00, 0x33}
	par, err := NewCodecDataFromAnnexB(annexB(aud, spsHigh1080, ppsSample, idr))
	require.NoError(t, err)

	require.Equal(t, paramset.H264, par.Type())
	require.Equal(t, "avc1.640028", par.Tag())
	require.Equal(t, uint(1920), par.Width())
	require.Equal(t, uint(1080), par.Height())
	require.Equal(t, spsHigh1080, par.SPS())
	require.Equal(t, ppsSample, par.PPS())

	expected, err := (&AVCDecoderConfRecord{
		AVCProfileIndication: 100,
		AVCLevelIndication:   40,
		SPS:                  spsHigh1080,
		PPS:                  ppsSample,
		Extended:             &ExtendedConfigurationData{ChromaFormat: 1},
	}).Marshal()
	require.NoError(t, err)
	require.Equal(t, expected, par.DecoderConfRecord())
}

func TestNewCodecDataFromAnnexBMissingPPS(t *testing.T) {
	t.Parallel()

	_, err := NewCodecDataFromAnnexB(annexB(spsHigh1080, []byte{0x65, 0x88}))
	require.ErrorAs(t, err, &utils.NoCodecDataError{})

	_, err = NewCodecDataFromAnnexB([]byte{0x67, 0x42})
	require.ErrorIs(t, err, utils.ErrMalformedInput)
}

func TestNewCodecDataFromAVCDecoderConfRecord(t *testing.T) {
	t.Parallel()

	src, err := NewCodecDataFromSPSAndPPS(spsBaseline1080, ppsSample)
	require.NoError(t, err)
	require.Equal(t, "avc1.42C028", src.Tag())

	par, err := NewCodecDataFromAVCDecoderConfRecord(src.DecoderConfRecord())
	require.NoError(t, err)
	require.Equal(t, src.RecordInfo, par.RecordInfo)
	require.Equal(t, src.SPSInfo, par.SPSInfo)
	require.Equal(t, uint(1920), par.Width())
	require.Equal(t, uint(1080), par.Height())
}

func TestNewCodecDataFromAVCDecoderConfRecordWithoutExtension(t *testing.T) {
	t.Parallel()

	// High profile records written by muxers that omit the trailing extension.
	record := []byte{0x01, 0x64, 0x00, 0x1f, 0xff, 0xe1, 0x00, byte(len(spsHigh720))}
	record = append(record, spsHigh720...)
	record = append(record, 0x01, 0x00, byte(len(ppsSample)))
	record = append(record, ppsSample...)

	par, err := NewCodecDataFromAVCDecoderConfRecord(record)
	require.NoError(t, err)
	require.Equal(t, uint(1280), par.Width())
	require.Equal(t, uint(720), par.Height())
	require.NotNil(t, par.RecordInfo.Extended)
	require.Equal(t, uint(1), par.RecordInfo.Extended.ChromaFormat)
}

func TestCodecParametersStreamIndex(t *testing.T) {
	t.Parallel()

	par, err := NewCodecDataFromSPSAndPPS(spsHigh352, ppsSample)
	require.NoError(t, err)
	par.SetStreamIndex(2)
	require.Equal(t, uint8(2), par.StreamIndex())
	require.Equal(t, "CODEC_PARAMETERS codec=H264", par.String())
}
