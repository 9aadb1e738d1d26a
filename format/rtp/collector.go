// Package rtp recovers H.264 and H.265 parameter sets from RTP payloads and builds
// codec parameters from them.
package rtp

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/logger"
	"github.com/ugparu/paramset/utils/sdp"
)

// Collector watches the packets of one stream for parameter sets. Codec parameters are rebuilt
// whenever a parameter set changes.
type Collector interface {
	// Push inspects one packet. Malformed payloads and invalid parameter sets are reported but
	// leave the collector usable.
	Push(pkt *rtp.Packet) error
	// Ready reports whether every parameter set the codec needs has been seen.
	Ready() bool
	// CodecParameters returns the latest parameters, or utils.NoCodecDataError before Ready.
	CodecParameters() (paramset.VideoCodecParameters, error)
}

// NewCollector creates a collector for the codec of media and seeds it with the parameter sets
// the SDP advertises, if any.
func NewCollector(media sdp.Media, index uint8) (Collector, error) {
	vps, sps, pps, err := media.ParameterSets()
	if err != nil && !errors.As(err, &utils.NoCodecDataError{}) {
		return nil, err
	}

	switch media.Type {
	case paramset.H264:
		c := NewH264Collector(index)
		for _, unit := range [][]byte{sps, pps} {
			if err = c.unit(unit); err != nil {
				return nil, err
			}
		}
		return c, nil
	case paramset.H265:
		c := NewH265Collector(index, media.MaxDONDiff > 0)
		for _, unit := range [][]byte{vps, sps, pps} {
			if err = c.unit(unit); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
	return nil, fmt.Errorf("rtp: no collector for %v: %w", media.Type, utils.ErrUnsupported)
}

// Collect reads packets from r until c is ready. Packets that fail to push are logged and
// skipped; reading stops after maxPackets packets or at the first read error.
func Collect(r PacketReader, c Collector, maxPackets int) (paramset.VideoCodecParameters, error) {
	for range maxPackets {
		if c.Ready() {
			break
		}
		pkt, err := r.ReadPacket()
		if err != nil {
			return nil, err
		}
		if err = c.Push(pkt); err != nil {
			logger.Debugf(c, "seq=%d: %v", pkt.SequenceNumber, err)
		}
	}
	return c.CodecParameters()
}

// sequence tracks RTP sequence numbers to detect loss between fragments.
type sequence struct {
	last    uint16
	started bool
}

// next records seq and reports whether it directly follows the previous packet.
func (s *sequence) next(seq uint16) bool {
	contiguous := !s.started || seq == s.last+1
	s.last, s.started = seq, true
	return contiguous
}
