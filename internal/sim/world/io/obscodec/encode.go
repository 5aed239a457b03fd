package obscodec

import (
	"encoding/base64"
	"fmt"

	"pixelypse.dev/internal/sim/tiles"
)

const EncodingPAL16U16LE = "PAL16_U16LE"

// EncodePAL16U16LE packs tile codes as little-endian uint16s and base64-encodes the result.
func EncodePAL16U16LE(codes []tiles.Code) string {
	buf := make([]byte, len(codes)*2)
	for i, v := range codes {
		off := i * 2
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func DecodePAL16U16LE(s string) ([]tiles.Code, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("obscodec: odd payload length %d", len(buf))
	}
	out := make([]tiles.Code, len(buf)/2)
	for i := range out {
		out[i] = tiles.Code(buf[i*2]) | tiles.Code(buf[i*2+1])<<8
	}
	return out, nil
}
