// Package sourcemap generates Source Map v3 files for compiled output.
//
// See https://sourcemaps.info/spec.html for the format.
package sourcemap

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		base64Values[base64Alphabet[i]] = int8(i)
	}
}

const (
	vlqShift        = 5
	vlqMask         = 1<<vlqShift - 1
	vlqContinuation = 1 << vlqShift
)

// AppendVLQ appends the base64 VLQ encoding of value to dst. The sign lives
// in the lowest bit of the first digit.
func AppendVLQ(dst []byte, value int) []byte {
	var vlq uint64
	if value < 0 {
		vlq = uint64(-value)<<1 | 1
	} else {
		vlq = uint64(value) << 1
	}
	for {
		digit := vlq & vlqMask
		vlq >>= vlqShift
		if vlq > 0 {
			digit |= vlqContinuation
		}
		dst = append(dst, base64Alphabet[digit])
		if vlq == 0 {
			return dst
		}
	}
}

// DecodeVLQ decodes one value from the front of input and returns it with
// the number of bytes consumed. consumed is zero for empty, invalid or
// truncated input.
func DecodeVLQ(input string) (value int, consumed int) {
	var vlq uint64
	var shift uint
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c >= 128 || base64Values[c] < 0 {
			return 0, 0
		}
		digit := uint64(base64Values[c])
		vlq |= (digit & vlqMask) << shift
		shift += vlqShift
		if digit&vlqContinuation == 0 {
			if vlq&1 != 0 {
				return -int(vlq >> 1), i + 1
			}
			return int(vlq >> 1), i + 1
		}
	}
	return 0, 0
}
