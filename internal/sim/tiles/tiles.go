package tiles

// Code is the raw tile value stored in a chunk grid.
type Code uint16

// Kind is the visual/material class a Code renders as.
type Kind uint8

const (
	KindGrass Kind = iota
	KindSand
	KindDirt
	KindStone
)

// Count is the size of the valid code range [0, Count).
const Count = 4

// PlaceholderCode fills template chunks until real content is generated.
const PlaceholderCode Code = 1

var names = [Count]string{
	KindGrass: "GRASS",
	KindSand:  "SAND",
	KindDirt:  "DIRT",
	KindStone: "STONE",
}

// Classify maps any code to a Kind. Codes outside the known range fall back to KindGrass.
func Classify(code Code) Kind {
	if int(code) >= Count {
		return KindGrass
	}
	return Kind(code)
}

func (k Kind) String() string {
	if int(k) >= Count {
		return names[KindGrass]
	}
	return names[k]
}

// Palette returns kind names indexed by code.
func Palette() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}
