package rtp

import (
	"bytes"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec/h264"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/logger"
	"github.com/ugparu/paramset/utils/nal"
)

const (
	control1  = 0x1f
	nalSTAPB  = 25
	nalMTAP16 = 26
	nalMTAP24 = 27
	nalFUA    = 28
	nalFUB    = 29
	fuaStart  = 0x80
)

// H264Collector gathers the SPS and PPS of an RFC 6184 stream. Single NAL unit, STAP-A and
// FU-A payloads are depacketized; interleaved mode packets are rejected.
type H264Collector struct {
	index  uint8
	depack *codecs.H264Packet
	seq    sequence
	skipFU bool
	sps    []byte
	pps    []byte
	codec  *h264.CodecParameters
}

func NewH264Collector(index uint8) *H264Collector {
	return &H264Collector{
		index:  index,
		depack: &codecs.H264Packet{},
	}
}

func (c *H264Collector) String() string {
	return fmt.Sprintf("RTP_H264 index=%d", c.index)
}

func (c *H264Collector) Push(pkt *rtp.Packet) error {
	if !c.seq.next(pkt.SequenceNumber) {
		logger.Tracef(c, "sequence gap before %d, dropping partial fragment", pkt.SequenceNumber)
		c.depack = &codecs.H264Packet{}
		c.skipFU = true
	}
	if len(pkt.Payload) == 0 {
		return fmt.Errorf("rtp: empty h264 payload: %w", utils.ErrMalformedInput)
	}
	switch typ := pkt.Payload[0] & control1; typ {
	case nalSTAPB, nalMTAP16, nalMTAP24, nalFUB:
		return fmt.Errorf("rtp: h264 packetization type %d: %w", typ, utils.ErrUnsupported)
	case nalFUA:
		if len(pkt.Payload) > 1 && pkt.Payload[1]&fuaStart != 0 {
			c.skipFU = false
		} else if c.skipFU {
			return nil
		}
	default:
		c.skipFU = false
	}

	out, err := c.depack.Unmarshal(pkt.Payload)
	if err != nil {
		c.depack = &codecs.H264Packet{}
		return fmt.Errorf("rtp: h264 payload: %w: %w", utils.ErrMalformedInput, err)
	}
	if len(out) == 0 {
		return nil
	}

	units, err := nal.SplitAnnexB(out)
	if err != nil {
		return err
	}
	for _, unit := range units {
		if err = c.unit(unit); err != nil {
			return err
		}
	}
	return nil
}

func (c *H264Collector) unit(nalu []byte) error {
	if len(nalu) == 0 {
		return nil
	}
	switch h264.NalUnitType(nalu[0] & control1) {
	case h264.NalUnitTypeSPS:
		if bytes.Equal(nalu, c.sps) {
			return nil
		}
		if _, err := h264.ParseSPSNALU(nalu); err != nil {
			return err
		}
		c.sps = bytes.Clone(nalu)
	case h264.NalUnitTypePPS:
		if bytes.Equal(nalu, c.pps) {
			return nil
		}
		c.pps = bytes.Clone(nalu)
	default:
		return nil
	}
	return c.update()
}

func (c *H264Collector) update() error {
	if !c.Ready() {
		return nil
	}
	codecPar, err := h264.NewCodecDataFromSPSAndPPS(c.sps, c.pps)
	if err != nil {
		return err
	}
	codecPar.SetStreamIndex(c.index)
	c.codec = &codecPar
	logger.Debugf(c, "parameters updated %s %dx%d", codecPar.Tag(), codecPar.Width(), codecPar.Height())
	return nil
}

func (c *H264Collector) Ready() bool {
	return c.sps != nil && c.pps != nil
}

func (c *H264Collector) CodecParameters() (paramset.VideoCodecParameters, error) {
	if c.codec == nil {
		return nil, utils.NoCodecDataError{}
	}
	return c.codec, nil
}

var _ Collector = (*H264Collector)(nil)
