package h264

import (
	"fmt"

	"github.com/ugparu/paramset/utils"
	"github.com/ugparu/paramset/utils/bits"
)

// Default scaling lists from Table 7-3 and Table 7-4 of ITU-T H.264, in zig-zag scan order.
var (
	defaultScaling4x4Intra = [scalingListSizeSmall]uint8{
		6, 13, 13, 20, 20, 20, 28, 28, 28, 28, 32, 32, 32, 32, 37, 37,
	}
	defaultScaling4x4Inter = [scalingListSizeSmall]uint8{
		10, 14, 14, 20, 20, 20, 24, 24, 24, 24, 27, 27, 27, 30, 30, 34,
	}
	defaultScaling8x8Intra = [scalingListSizeLarge]uint8{
		6, 10, 10, 13, 11, 13, 16, 16, 16, 16, 18, 18, 18, 18, 18, 23,
		23, 23, 23, 23, 23, 25, 25, 25, 25, 25, 25, 25, 27, 27, 27, 27,
		27, 27, 27, 27, 29, 29, 29, 29, 29, 29, 29, 31, 31, 31, 31, 31,
		31, 33, 33, 33, 33, 33, 36, 36, 36, 36, 38, 38, 38, 40, 40, 42,
	}
	defaultScaling8x8Inter = [scalingListSizeLarge]uint8{
		9, 13, 13, 15, 13, 15, 17, 17, 17, 17, 19, 19, 19, 19, 19, 21,
		21, 21, 21, 21, 21, 22, 22, 22, 22, 22, 22, 22, 24, 24, 24, 24,
		24, 24, 24, 24, 25, 25, 25, 25, 25, 25, 25, 27, 27, 27, 27, 27,
		27, 28, 28, 28, 28, 28, 30, 30, 30, 30, 32, 32, 32, 33, 33, 35,
	}
)

// DefaultScalingList returns a copy of the built-in table that list index i falls back to:
// 0-2 take the 4x4 intra table, 3-5 the 4x4 inter table, even indices 6-10 the 8x8 intra table
// and odd indices 7-11 the 8x8 inter table. Any other index panics.
func DefaultScalingList(i int) []uint8 {
	switch {
	case i >= 0 && i < 3:
		l := defaultScaling4x4Intra
		return l[:]
	case i >= 3 && i < scalingListThreshold:
		l := defaultScaling4x4Inter
		return l[:]
	case i >= scalingListThreshold && i < scalingListCount444 && i%2 == 0:
		l := defaultScaling8x8Intra
		return l[:]
	case i >= scalingListThreshold && i < scalingListCount444:
		l := defaultScaling8x8Inter
		return l[:]
	}
	panic(fmt.Sprintf("h264parser: scaling list index %d out of range", i))
}

// readScalingList decodes one delta coded scaling_list() into list.
// Entries after a zero next_scale repeat the last stored value.
func readScalingList(r *bits.GolombBitReader, list []uint8) (useDefault bool, err error) {
	lastScale, nextScale := defaultScaleValue, defaultScaleValue
	for j := range list {
		if nextScale != 0 {
			var delta int
			if delta, err = r.ReadSE(); err != nil {
				return
			}
			if delta < minDeltaScale || delta > maxDeltaScale {
				err = fmt.Errorf("h264parser: delta_scale %d out of range: %w", delta, utils.ErrMalformedInput)
				return
			}
			nextScale = (lastScale + delta + maxScaleValue) % maxScaleValue
			useDefault = j == 0 && nextScale == 0
		}
		if nextScale != 0 {
			list[j] = uint8(nextScale) //nolint:gosec // reduced modulo 256
		} else {
			list[j] = uint8(lastScale) //nolint:gosec // previous entry
		}
		lastScale = int(list[j])
	}
	return
}

// readScalingMatrix reads the seq_scaling_list_present_flag loop and applies fall-back rule A
// for every list that is not transmitted.
func readScalingMatrix(r *bits.GolombBitReader, ext *ExtendedConfigurationData) (err error) {
	entryCount := scalingListCount
	if ext.ChromaFormat == chromaFormat444 {
		entryCount = scalingListCount444
	}

	ext.ScalingList4x4 = make([][scalingListSizeSmall]uint8, scalingListThreshold)
	ext.ScalingList4x4UseDefault = make([]bool, scalingListThreshold)
	ext.ScalingList8x8 = make([][scalingListSizeLarge]uint8, entryCount-scalingListThreshold)
	ext.ScalingList8x8UseDefault = make([]bool, entryCount-scalingListThreshold)

	for i := range entryCount {
		var present uint
		if present, err = r.ReadBit(); err != nil {
			return
		}

		if i < scalingListThreshold {
			switch {
			case present == 1:
				ext.ScalingList4x4UseDefault[i], err = readScalingList(r, ext.ScalingList4x4[i][:])
				if err != nil {
					return
				}
			case i == 0 || i == 3:
				copy(ext.ScalingList4x4[i][:], DefaultScalingList(i))
				ext.ScalingList4x4UseDefault[i] = true
			default:
				ext.ScalingList4x4[i] = ext.ScalingList4x4[i-1]
				ext.ScalingList4x4UseDefault[i] = ext.ScalingList4x4UseDefault[i-1]
			}
			continue
		}

		k := i - scalingListThreshold
		switch {
		case present == 1:
			ext.ScalingList8x8UseDefault[k], err = readScalingList(r, ext.ScalingList8x8[k][:])
			if err != nil {
				return
			}
		case i == 6 || i == 7:
			copy(ext.ScalingList8x8[k][:], DefaultScalingList(i))
			ext.ScalingList8x8UseDefault[k] = true
		default:
			// Cb and Cr lists of 4:4:4 streams inherit from the same intra/inter list two slots back.
			ext.ScalingList8x8[k] = ext.ScalingList8x8[k-2]
			ext.ScalingList8x8UseDefault[k] = ext.ScalingList8x8UseDefault[k-2]
		}
	}
	return
}
