package tiles

import "testing"

func TestClassifyKnownCodes(t *testing.T) {
	want := []Kind{KindGrass, KindSand, KindDirt, KindStone}
	for code, k := range want {
		if got := Classify(Code(code)); got != k {
			t.Fatalf("Classify(%d)=%v want %v", code, got, k)
		}
	}
}

func TestClassifyUnknownFallsBackToGround(t *testing.T) {
	for _, code := range []Code{Count, 17, 0xFFFF} {
		if got := Classify(code); got != KindGrass {
			t.Fatalf("Classify(%d)=%v want GRASS", code, got)
		}
	}
}

func TestPaletteMatchesKindNames(t *testing.T) {
	p := Palette()
	if len(p) != Count {
		t.Fatalf("palette len=%d want %d", len(p), Count)
	}
	for i, name := range p {
		if Kind(i).String() != name {
			t.Fatalf("palette[%d]=%q kind name=%q", i, name, Kind(i).String())
		}
	}
	p[0] = "mutated"
	if Palette()[0] != "GRASS" {
		t.Fatalf("Palette must return a copy")
	}
}
