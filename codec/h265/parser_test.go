package h265

import (
	"testing"

	mch265 "github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"
	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset/utils"
)

var (
	sps1080 = []byte{
		0x42, 0x01, 0x01, 0x01, 0x60, 0x00, 0x00, 0x03,
		0x00, 0x90, 0x00, 0x00, 0x03, 0x00, 0x00, 0x03,
		0x00, 0x78, 0xa0, 0x03, 0xc0, 0x80, 0x10, 0xe5,
		0x96, 0x66, 0x69, 0x24, 0xca, 0xe0, 0x10, 0x00,
		0x00, 0x03, 0x00, 0x10, 0x00, 0x00, 0x03, 0x01,
		0xe0, 0x80,
	}
	sps720RExt = []byte{
		0x42, 0x01, 0x01, 0x04, 0x08, 0x00, 0x00, 0x03,
		0x00, 0x98, 0x08, 0x00, 0x00, 0x03, 0x00, 0x00,
		0x5d, 0x90, 0x00, 0x50, 0x10, 0x05, 0xa2, 0x29,
		0x4b, 0x74, 0x94, 0x98, 0x5f, 0xfe, 0x00, 0x02,
		0x00, 0x02, 0xd4, 0x04, 0x04, 0x04, 0x10, 0x00,
		0x00, 0x03, 0x00, 0x10, 0x00, 0x00, 0x03, 0x01,
		0xe0, 0x80,
	}
	spsNvenc = []byte{
		0x42, 0x01, 0x01, 0x01, 0x40, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x03, 0x00, 0x00, 0x03, 0x00, 0x00,
		0x03, 0x00, 0x7b, 0xa0, 0x03, 0xc0, 0x80, 0x11,
		0x07, 0xcb, 0x96, 0xb4, 0xa4, 0x25, 0x92, 0xe3,
		0x01, 0x6a, 0x02, 0x02, 0x02, 0x08, 0x00, 0x00,
		0x03, 0x00, 0x08, 0x00, 0x00, 0x03, 0x01, 0xe3,
		0x00, 0x2e, 0xf2, 0x88, 0x00, 0x07, 0x27, 0x0c,
		0x00, 0x00, 0x98, 0x96, 0x82,
	}
	vpsSample = []byte{
		0x40, 0x01, 0x0c, 0x01, 0xff, 0xff, 0x01, 0x60,
		0x00, 0x00, 0x03, 0x00, 0x90, 0x00, 0x00, 0x03,
		0x00, 0x00, 0x03, 0x00, 0x78, 0x99, 0x98, 0x09,
	}
	ppsSample = []byte{0x44, 0x01, 0xc1, 0x72, 0xb4, 0x62, 0x40}
)

func TestParseSPS(t *testing.T) {
	t.Parallel()

	info, err := ParseSPS(sps1080)
	require.NoError(t, err)
	require.Equal(t, SPSInfo{
		TemporalIDNested:                 true,
		GeneralProfileIDC:                1,
		GeneralProfileCompatibilityFlags: 0x60000000,
		GeneralConstraintIndicatorFlags:  0x900000000000,
		GeneralLevelIDC:                  120,
		ChromaFormat:                     1,
		PicWidthInLumaSamples:            1920,
		PicHeightInLumaSamples:           1080,
		Log2MaxPicOrderCntLsbMinus4:      4,
	}, info)
	require.Equal(t, uint8(1), info.NumTemporalLayers())
}

func TestParseSPSRangeExtension(t *testing.T) {
	t.Parallel()

	info, err := ParseSPS(sps720RExt)
	require.NoError(t, err)
	require.Equal(t, uint8(4), info.GeneralProfileIDC)
	require.Equal(t, uint32(0x08000000), info.GeneralProfileCompatibilityFlags)
	require.Equal(t, uint64(0x980800000000), info.GeneralConstraintIndicatorFlags)
	require.Equal(t, uint8(93), info.GeneralLevelIDC)
	require.Equal(t, uint(3), info.ChromaFormat)
	require.False(t, info.SeparateColourPlane)
	require.Equal(t, uint(4), info.BitDepthLumaMinus8)
	require.Equal(t, uint(4), info.BitDepthChromaMinus8)
	require.Equal(t, uint(1280), info.Width())
	require.Equal(t, uint(720), info.Height())
}

func TestParseSPSConformanceWindow(t *testing.T) {
	t.Parallel()

	info, err := ParseSPS(spsNvenc)
	require.NoError(t, err)
	require.Equal(t, uint(1088), info.PicHeightInLumaSamples)
	require.Equal(t, uint(4), info.ConfWinBottomOffset)
	require.Equal(t, uint(1920), info.Width())
	require.Equal(t, uint(1080), info.Height())
}

func TestParseSPSMatchesMediacommon(t *testing.T) {
	t.Parallel()

	for _, nalu := range [][]byte{sps1080, sps720RExt, spsNvenc} {
		var ref mch265.SPS
		require.NoError(t, ref.Unmarshal(nalu))

		info, err := ParseSPS(nalu)
		require.NoError(t, err)
		require.Equal(t, uint(ref.Width()), info.Width())   //nolint:gosec
		require.Equal(t, uint(ref.Height()), info.Height()) //nolint:gosec
	}
}

func TestParseSPSErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseSPS(sps1080[:2])
	require.ErrorIs(t, err, utils.ErrMalformedInput)

	_, err = ParseSPS(vpsSample)
	require.ErrorIs(t, err, utils.ErrMalformedInput)

	_, err = ParseSPS(sps1080[:12])
	var ioErr *utils.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestNalUnitTypeOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, NalUnitVps, NalUnitTypeOf(vpsSample[0]))
	require.Equal(t, NalUnitSps, NalUnitTypeOf(sps1080[0]))
	require.Equal(t, NalUnitPps, NalUnitTypeOf(ppsSample[0]))
	require.Equal(t, NalUnitCodedSliceIdrWRadl, NalUnitTypeOf(0x26))
	require.Equal(t, NalUnitFragmentationUnit, NalUnitTypeOf(0x62))
	require.True(t, NalUnitCodedSliceCra.IsIRAP())
	require.False(t, NalUnitCodedSliceTrailR.IsIRAP())
	require.Equal(t, "SPS", NalUnitSps.String())
	require.Equal(t, "IRAP(19)", NalUnitCodedSliceIdrWRadl.String())
}
