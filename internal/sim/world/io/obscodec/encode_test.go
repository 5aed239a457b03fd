package obscodec

import (
	"testing"

	"pixelypse.dev/internal/sim/tiles"
)

func TestEncodePAL16U16LEByteOrder(t *testing.T) {
	// 0x0102 -> 02 01, 0x0003 -> 03 00
	got := EncodePAL16U16LE([]tiles.Code{0x0102, 0x0003})
	if got != "AgEDAA==" {
		t.Fatalf("unexpected encoding %q", got)
	}
	codes, err := DecodePAL16U16LE(got)
	if err != nil || len(codes) != 2 || codes[0] != 0x0102 || codes[1] != 3 {
		t.Fatalf("decode: %v %v", codes, err)
	}
}

func TestDecodePAL16U16LERejectsOddLength(t *testing.T) {
	if _, err := DecodePAL16U16LE("AQ=="); err == nil {
		t.Fatalf("expected odd length error")
	}
	if _, err := DecodePAL16U16LE("not base64!"); err == nil {
		t.Fatalf("expected base64 error")
	}
}
