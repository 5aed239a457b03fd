package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "120.snap.zst")
	in := SnapshotV1{
		Header:    Header{Version: Version, WorldID: "w1", Tick: 120},
		Seed:      42,
		TickRate:  20,
		ChunkSide: 8,
		TileSize:  16,
		ChunksX:   2,
		ChunksY:   2,
		Bootstrap: "template",
		Generated: []ChunkKeyV1{{CX: 0, CY: 0}, {CX: -3, CY: 5}},
		Pending:   []ChunkKeyV1{{CX: 1, CY: 1}},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.WorldID != "w1" || h.Tick != 120 {
		t.Fatalf("header mismatch: %+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Seed != 42 || out.ChunkSide != 8 || out.TileSize != 16 {
		t.Fatalf("params mismatch: %+v", out)
	}
	if len(out.Generated) != 2 || out.Generated[1] != (ChunkKeyV1{CX: -3, CY: 5}) {
		t.Fatalf("generated keys mismatch: %+v", out.Generated)
	}
	if len(out.Pending) != 1 {
		t.Fatalf("pending keys mismatch: %+v", out.Pending)
	}
}

func TestReadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 7}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
