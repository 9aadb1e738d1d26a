package rtp

import (
	"bytes"
	"fmt"

	"github.com/pion/rtp"
	"github.com/ugparu/paramset"
	"github.com/ugparu/paramset/codec/h265"
	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits/pio"
	"github.com/ugparu/paramset/utils/logger"
)

const (
	h265HeaderSize = 2
	donlSize       = 2
	dondSize       = 1
	apLengthSize   = 2
	fuStart        = 0x80
	fuEnd          = 0x40
	fuTypeMask     = 0x3f
	nalPACI        = 50
)

// H265Collector gathers the VPS, SPS and PPS of an RFC 7798 stream from single NAL unit,
// aggregation and fragmentation unit payloads. With donl set, the decoding order number
// fields announced by sprop-max-don-diff are skipped.
type H265Collector struct {
	index    uint8
	donl     bool
	seq      sequence
	fu       []byte
	fuActive bool

	vps, sps, pps []byte
	codec         *h265.CodecParameters
}

func NewH265Collector(index uint8, donl bool) *H265Collector {
	return &H265Collector{index: index, donl: donl}
}

func (c *H265Collector) String() string {
	return fmt.Sprintf("RTP_H265 index=%d", c.index)
}

func isParameterSet(typ h265.NalUnitType) bool {
	return typ == h265.NalUnitVps || typ == h265.NalUnitSps || typ == h265.NalUnitPps
}

func (c *H265Collector) Push(pkt *rtp.Packet) error {
	if !c.seq.next(pkt.SequenceNumber) && c.fuActive {
		logger.Tracef(c, "sequence gap before %d, dropping partial fragment", pkt.SequenceNumber)
		c.fuActive = false
	}

	p := pkt.Payload
	if len(p) < h265HeaderSize+1 {
		return fmt.Errorf("rtp: h265 payload of %d bytes: %w", len(p), utils.ErrMalformedInput)
	}

	switch typ := h265.NalUnitTypeOf(p[0]); typ {
	case h265.NalUnitAggregationPacket:
		return c.aggregation(p[h265HeaderSize:])
	case h265.NalUnitFragmentationUnit:
		return c.fragment(p)
	case nalPACI:
		logger.Tracef(c, "skip PACI packet")
		return nil
	default:
		if c.donl {
			if len(p) < h265HeaderSize+donlSize+1 {
				return fmt.Errorf("rtp: h265 payload of %d bytes: %w", len(p), utils.ErrMalformedInput)
			}
			p = append(p[:h265HeaderSize:h265HeaderSize], p[h265HeaderSize+donlSize:]...)
		}
		return c.unit(p)
	}
}

func (c *H265Collector) aggregation(b []byte) error {
	if c.donl {
		if len(b) < donlSize {
			return fmt.Errorf("rtp: h265 AP without DONL: %w", utils.ErrMalformedInput)
		}
		b = b[donlSize:]
	}
	for first := true; len(b) > 0; first = false {
		if !first && c.donl {
			b = b[dondSize:]
		}
		if len(b) < apLengthSize {
			return fmt.Errorf("rtp: h265 AP truncated: %w", utils.ErrMalformedInput)
		}
		size := int(pio.U16BE(b))
		b = b[apLengthSize:]
		if size < h265HeaderSize || size > len(b) {
			return fmt.Errorf("rtp: h265 AP unit of %d bytes: %w", size, utils.ErrMalformedInput)
		}
		if err := c.unit(b[:size]); err != nil {
			return err
		}
		b = b[size:]
	}
	return nil
}

func (c *H265Collector) fragment(p []byte) error {
	header := p[h265HeaderSize]
	typ := h265.NalUnitType(header & fuTypeMask)
	body := p[h265HeaderSize+1:]
	if c.donl {
		if len(body) < donlSize {
			return fmt.Errorf("rtp: h265 FU without DONL: %w", utils.ErrMalformedInput)
		}
		body = body[donlSize:]
	}

	if header&fuStart != 0 {
		c.fuActive = isParameterSet(typ)
		if c.fuActive {
			c.fu = append(c.fu[:0], p[0]&0x81|byte(typ)<<1, p[1]) //nolint:mnd // keep F and LayerId high bit
		}
	}
	if !c.fuActive {
		return nil
	}
	c.fu = append(c.fu, body...)
	if header&fuEnd != 0 {
		c.fuActive = false
		return c.unit(c.fu)
	}
	return nil
}

func (c *H265Collector) unit(nalu []byte) error {
	if len(nalu) < h265HeaderSize {
		return nil
	}
	var slot *[]byte
	switch h265.NalUnitTypeOf(nalu[0]) {
	case h265.NalUnitVps:
		slot = &c.vps
	case h265.NalUnitSps:
		if !bytes.Equal(nalu, c.sps) {
			if _, err := h265.ParseSPS(nalu); err != nil {
				return err
			}
		}
		slot = &c.sps
	case h265.NalUnitPps:
		slot = &c.pps
	default:
		return nil
	}
	if bytes.Equal(nalu, *slot) {
		return nil
	}
	*slot = bytes.Clone(nalu)
	return c.update()
}

func (c *H265Collector) update() error {
	if !c.Ready() {
		return nil
	}
	codecPar, err := h265.NewCodecDataFromVPSAndSPSAndPPS(c.vps, c.sps, c.pps)
	if err != nil {
		return err
	}
	codecPar.SetStreamIndex(c.index)
	c.codec = &codecPar
	logger.Debugf(c, "parameters updated %s %dx%d", codecPar.Tag(), codecPar.Width(), codecPar.Height())
	return nil
}

func (c *H265Collector) Ready() bool {
	return c.vps != nil && c.sps != nil && c.pps != nil
}

func (c *H265Collector) CodecParameters() (paramset.VideoCodecParameters, error) {
	if c.codec == nil {
		return nil, utils.NoCodecDataError{}
	}
	return c.codec, nil
}

var _ Collector = (*H265Collector)(nil)
