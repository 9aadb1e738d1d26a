// Package paramset extracts picture metadata from H.264 and H.265 parameter sets and builds the
// decoder configuration records that ISOBMFF muxers embed in avcC and hvcC boxes.
package paramset

// CodecParameters defines the interface shared by codec configurations.
type CodecParameters interface {
	Type() CodecType      // Returns the codec type.
	Tag() string          // Returns the RFC 6381 codec identifier string.
	StreamIndex() uint8   // Returns the index of the stream in a container or session.
	SetStreamIndex(uint8) // Sets the stream index value.
}

// VideoCodecParameters extends CodecParameters with the values derived from parameter sets.
type VideoCodecParameters interface {
	CodecParameters            // Inherits all CodecParameters methods.
	Width() uint               // Returns the cropped picture width in pixels.
	Height() uint              // Returns the cropped picture height in pixels.
	DecoderConfRecord() []byte // Returns the serialized decoder configuration record body.
}
