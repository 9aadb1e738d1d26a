package paramset

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ugparu/paramset/utils"
)

func TestParseCodecType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want CodecType
	}{
		{"h264", H264},
		{"AVC", H264},
		{"hevc", H265},
		{"H265", H265},
		{"hvc1", H265},
	}
	for _, tt := range tests {
		got, err := ParseCodecType(tt.name)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := ParseCodecType("vp9")
	require.ErrorIs(t, err, utils.ErrUnsupported)

	require.Equal(t, "H264", H264.String())
	require.Equal(t, "H265", H265.String())
	require.Equal(t, "UNKNOWN", CodecType(0).String())
}
