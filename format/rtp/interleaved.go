package rtp

import (
	"fmt"
	"io"

	"github.com/pion/rtp"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
	"github.com/ugparu/paramset/utils/logger"
)

const (
	headerSize     = 4
	interleaveMark = '$'
	rtpHeaderSize  = 12
	rtcpTypeFirst  = 192
	rtcpTypeLast   = 223
)

// PacketReader is a source of RTP packets.
type PacketReader interface {
	ReadPacket() (*rtp.Packet, error)
}

// InterleavedReader reads RTP packets framed as RTSP interleaved binary data
// ($, channel, u16 length, packet). Frames of other channels and RTCP frames are skipped.
type InterleavedReader struct {
	rdr     io.Reader
	channel uint8
	hdr     [headerSize]byte
}

func NewInterleavedReader(rdr io.Reader, channel uint8) *InterleavedReader {
	return &InterleavedReader{rdr: rdr, channel: channel}
}

func (d *InterleavedReader) String() string {
	return fmt.Sprintf("RTP_INTERLEAVED channel=%d", d.channel)
}

func (d *InterleavedReader) ReadPacket() (*rtp.Packet, error) {
	for {
		if _, err := io.ReadFull(d.rdr, d.hdr[:]); err != nil {
			return nil, &utils.IOError{Op: "rtp: read frame header", Err: err}
		}
		if d.hdr[0] != interleaveMark {
			return nil, fmt.Errorf("rtp: frame starts with 0x%02x: %w", d.hdr[0], utils.ErrMalformedInput)
		}

		length := int(pio.U16BE(d.hdr[2:]))
		payload := make([]byte, length)
		if _, err := io.ReadFull(d.rdr, payload); err != nil {
			return nil, &utils.IOError{Op: "rtp: read frame", Err: err}
		}

		if d.hdr[1] != d.channel {
			logger.Tracef(d, "skip %d bytes of channel %d", length, d.hdr[1])
			continue
		}
		if length < rtpHeaderSize {
			return nil, fmt.Errorf("rtp: incorrect packet size %d: %w", length, utils.ErrMalformedInput)
		}
		if isRTCP(payload) {
			logger.Tracef(d, "skip rtcp packet type %d", payload[1])
			continue
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(payload); err != nil {
			return nil, fmt.Errorf("rtp: %w: %w", utils.ErrMalformedInput, err)
		}
		return pkt, nil
	}
}

// isRTCP applies the RFC 5761 payload type split used when RTP and RTCP share a channel.
func isRTCP(b []byte) bool {
	return b[1] >= rtcpTypeFirst && b[1] <= rtcpTypeLast
}
