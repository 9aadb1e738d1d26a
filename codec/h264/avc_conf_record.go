package h264

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits"
	"github.com/ugparu/paramset/utils/bits/pio"
)

// ErrDecconfInvalid reports a truncated or inconsistent AVCDecoderConfigurationRecord.
var ErrDecconfInvalid = fmt.Errorf("h264parser: AVCDecoderConfRecord invalid: %w", utils.ErrMalformedInput)

// AVCDecoderConfRecord represents the AVC (Advanced Video Coding) decoder configuration record
// carrying one SPS and one PPS.
type AVCDecoderConfRecord struct {
	AVCProfileIndication uint8  // Profile indication for the AVC stream.
	ProfileCompatibility uint8  // Profile compatibility (constraint flags) for the AVC stream.
	AVCLevelIndication   uint8  // Level indication for the AVC stream.
	SPS                  []byte // Sequence Parameter Set NALU.
	PPS                  []byte // Picture Parameter Set NALU.

	// Extended must be set when AVCProfileIndication is a high profile.
	Extended *ExtendedConfigurationData
}

func (avc *AVCDecoderConfRecord) validate() error {
	if len(avc.SPS) > maxParameterSetSize {
		return fmt.Errorf("h264parser: SPS of %d bytes does not fit the record: %w", len(avc.SPS), utils.ErrUnsupported)
	}
	if len(avc.PPS) > maxParameterSetSize {
		return fmt.Errorf("h264parser: PPS of %d bytes does not fit the record: %w", len(avc.PPS), utils.ErrUnsupported)
	}
	if !IsHighProfile(avc.AVCProfileIndication) {
		return nil
	}
	if avc.Extended == nil {
		return fmt.Errorf("h264parser: profile %d requires extended configuration data: %w",
			avc.AVCProfileIndication, utils.ErrUnsupported)
	}
	if avc.Extended.ChromaFormat > chromaFormat444 {
		return fmt.Errorf("h264parser: chroma format %d: %w", avc.Extended.ChromaFormat, utils.ErrUnsupported)
	}
	if avc.Extended.ChromaFormat == chromaFormat444 && avc.Extended.SeparateColorPlane == nil {
		return fmt.Errorf("h264parser: chroma format 3 requires separate_colour_plane_flag: %w", utils.ErrUnsupported)
	}
	// ue(v) fields are written with at most 32 suffix bits.
	if uint64(avc.Extended.BitDepthLumaMinus8) > math.MaxUint32 ||
		uint64(avc.Extended.BitDepthChromaMinus8) > math.MaxUint32 {
		return fmt.Errorf("h264parser: bit depth offsets %d/%d cannot be coded: %w",
			avc.Extended.BitDepthLumaMinus8, avc.Extended.BitDepthChromaMinus8, utils.ErrUnsupported)
	}
	return nil
}

func (avc *AVCDecoderConfRecord) marshalFixed() []byte {
	b := make([]byte, recordFixedSize+len(avc.SPS)+len(avc.PPS))
	b[0] = recordVersion
	b[1] = avc.AVCProfileIndication
	b[2] = avc.ProfileCompatibility
	b[3] = avc.AVCLevelIndication
	b[4] = lengthSizeMinusOne | maskLengthSizeMinusOneInv
	b[5] = 1 | maskSPSCountInv
	n := 6

	pio.PutU16BE(b[n:], uint16(len(avc.SPS))) //nolint:gosec // checked by validate
	n += lengthFieldSize
	n += copy(b[n:], avc.SPS)

	b[n] = 1
	n++

	pio.PutU16BE(b[n:], uint16(len(avc.PPS))) //nolint:gosec // checked by validate
	n += lengthFieldSize
	copy(b[n:], avc.PPS)

	return b
}

// WriteTo serializes the record to w. The record is validated first, so an incomplete
// record fails with utils.ErrUnsupported before anything is written.
// The high profile extension is coded with ue(v) fields followed by a zero
// seq_scaling_matrix_present bit.
func (avc *AVCDecoderConfRecord) WriteTo(w io.Writer) (int64, error) {
	if err := avc.validate(); err != nil {
		return 0, err
	}

	cw := &pio.CountingWriter{W: w}
	if _, err := cw.Write(avc.marshalFixed()); err != nil {
		return cw.N, &utils.IOError{Op: "h264parser: write record", Err: err}
	}
	if !IsHighProfile(avc.AVCProfileIndication) {
		return cw.N, nil
	}

	ext := avc.Extended
	bw := &bits.GolombBitWriter{W: cw}
	if err := bw.WriteUE(ext.ChromaFormat); err != nil {
		return cw.N, err
	}
	if ext.ChromaFormat == chromaFormat444 {
		if err := bw.WriteBool(*ext.SeparateColorPlane); err != nil {
			return cw.N, err
		}
	}
	if err := bw.WriteUE(ext.BitDepthLumaMinus8); err != nil {
		return cw.N, err
	}
	if err := bw.WriteUE(ext.BitDepthChromaMinus8); err != nil {
		return cw.N, err
	}
	if err := bw.WriteBool(ext.QPPrimeYZeroTransformBypass); err != nil {
		return cw.N, err
	}
	// scaling lists are never re-emitted
	if err := bw.WriteBool(false); err != nil {
		return cw.N, err
	}
	err := bw.Flush()
	return cw.N, err
}

// Len returns the serialized size of the record, or 0 if the record cannot be serialized.
func (avc *AVCDecoderConfRecord) Len() int {
	n, err := avc.WriteTo(io.Discard)
	if err != nil {
		return 0
	}
	return int(n)
}

// Marshal returns the serialized record.
func (avc *AVCDecoderConfRecord) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(recordFixedSize + len(avc.SPS) + len(avc.PPS) + 4) //nolint:mnd // extension bytes
	if _, err := avc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the binary representation of AVCDecoderConfRecord from the given byte slice.
// Only the first SPS and PPS are kept. A high profile extension, when present, is read back in
// the form WriteTo produces. It returns the number of bytes read and any decoding error encountered.
func (avc *AVCDecoderConfRecord) Unmarshal(b []byte) (n int, err error) {
	const minLength = 7
	if len(b) < minLength {
		err = ErrDecconfInvalid
		return
	}

	avc.AVCProfileIndication = b[1]
	avc.ProfileCompatibility = b[2]
	avc.AVCLevelIndication = b[3]
	spscount := int(b[5] & maskSPSCount)
	n += 6

	var sets [][]byte
	if sets, n, err = readParameterSets(b, n, spscount); err != nil {
		return
	}
	if len(sets) > 0 {
		avc.SPS = sets[0]
	}

	if len(b) < n+1 {
		err = ErrDecconfInvalid
		return
	}
	ppscount := int(b[n])
	n++

	if sets, n, err = readParameterSets(b, n, ppscount); err != nil {
		return
	}
	if len(sets) > 0 {
		avc.PPS = sets[0]
	}

	if !IsHighProfile(avc.AVCProfileIndication) || n == len(b) {
		return
	}

	r := bytes.NewReader(b[n:])
	if avc.Extended, err = readExtendedConfigurationData(&bits.GolombBitReader{R: r}); err != nil {
		err = fmt.Errorf("%w: %w", ErrDecconfInvalid, err)
		return
	}
	n = len(b) - r.Len()
	return
}

func readParameterSets(b []byte, n, count int) ([][]byte, int, error) {
	var sets [][]byte
	for range count {
		if len(b) < n+lengthFieldSize {
			return nil, n, ErrDecconfInvalid
		}
		size := int(pio.U16BE(b[n:]))
		n += lengthFieldSize

		if len(b) < n+size {
			return nil, n, ErrDecconfInvalid
		}
		sets = append(sets, b[n:n+size])
		n += size
	}
	return sets, n, nil
}
