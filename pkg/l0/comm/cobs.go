package comm

import "bytes"

const (
	// FrameDelimiter separates COBS frames on a byte stream.
	FrameDelimiter byte = 0x00
	// MaxFrameSize is the largest decoded frame accepted.
	MaxFrameSize = 512
	// MaxEncodedSize is the largest encoded frame, excluding the delimiter.
	MaxEncodedSize = MaxFrameSize + MaxFrameSize/254 + 1

	cobsBlockCode byte = 0xff
)

// EncodeCOBS encodes src so that the result contains no zero byte.
func EncodeCOBS(src []byte) []byte {
	dst := make([]byte, 1, len(src)+len(src)/254+2)
	codeAt, code := 0, byte(1)
	for _, b := range src {
		if b == 0 {
			dst[codeAt] = code
			codeAt, code = len(dst), 1
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, b)
		if code++; code == cobsBlockCode {
			dst[codeAt] = code
			codeAt, code = len(dst), 1
			dst = append(dst, 0)
		}
	}
	dst[codeAt] = code
	return dst
}

// DecodeCOBS reverses EncodeCOBS. src must not include the delimiter.
func DecodeCOBS(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, &FramingError{Reason: "empty frame"}
	}
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		code := src[i]
		if code == 0 {
			return nil, &FramingError{Reason: "zero byte inside frame"}
		}
		i++
		end := i + int(code) - 1
		if end > len(src) {
			return nil, &FramingError{Reason: "truncated block"}
		}
		if bytes.IndexByte(src[i:end], 0) >= 0 {
			return nil, &FramingError{Reason: "zero byte inside frame"}
		}
		dst = append(dst, src[i:end]...)
		i = end
		if code != cobsBlockCode && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}

// Frame encodes payload and appends the delimiter, ready for a byte stream.
func Frame(payload []byte) []byte {
	return append(EncodeCOBS(payload), FrameDelimiter)
}
