package paramset

import (
	"fmt"
	"strings"

	"github.com/ugparu/paramset/utils"
)

// CodecType represents the type of a codec.
type CodecType uint32

// avCodecTypeMagic is a magic number used to create unique codec types.
const avCodecTypeMagic = 233333

// codecTypeOtherBits leaves the low bit free, as the audio flag did in the wider codec space.
const codecTypeOtherBits = 1

// makeVideoCodecType creates a video CodecType based on the provided base.
func makeVideoCodecType(base uint32) (c CodecType) {
	c = CodecType(base) << codecTypeOtherBits
	return
}

// variables representing specific codec types.
var (
	H264 = makeVideoCodecType(avCodecTypeMagic + 1) //nolint:mnd
	H265 = makeVideoCodecType(avCodecTypeMagic + 2) //nolint:mnd
)

// String returns the human-readable string representation of a CodecType.
func (ct CodecType) String() string {
	switch ct {
	case H264:
		return "H264"
	case H265:
		return "H265"
	}
	return "UNKNOWN"
}

// ParseCodecType maps a user supplied codec name to a CodecType.
// Accepted spellings are h264/avc and h265/hevc, case insensitive.
func ParseCodecType(name string) (CodecType, error) {
	switch strings.ToLower(name) {
	case "h264", "avc", "avc1":
		return H264, nil
	case "h265", "hevc", "hev1", "hvc1":
		return H265, nil
	}
	return 0, fmt.Errorf("unknown codec %q: %w", name, utils.ErrUnsupported)
}
