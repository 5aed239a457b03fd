package entities

import (
	"errors"
	"math"
	"testing"
)

func TestSpawnSinglePlayer(t *testing.T) {
	r := NewRegistry()
	p, err := r.Spawn(KindPlayer, Vec{X: 32, Y: 32})
	if err != nil || p.ID != "P1" {
		t.Fatalf("spawn player: %+v %v", p, err)
	}
	if _, err := r.Spawn(KindPlayer, Vec{}); !errors.Is(err, ErrPlayerExists) {
		t.Fatalf("expected ErrPlayerExists, got %v", err)
	}
	z, _ := r.Spawn(KindZombie, Vec{X: 256, Y: 256})
	if z.ID != "Z1" || r.Len() != 2 {
		t.Fatalf("zombie spawn: %+v len=%d", z, r.Len())
	}
	if got, ok := r.Player(); !ok || got != p {
		t.Fatalf("Player lookup failed")
	}
}

func TestPlayerDiagonalNormalised(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Spawn(KindPlayer, Vec{X: 100, Y: 100})
	r.Update(Input{Up: true, Left: true}, 1000, 1000)
	moved := math.Hypot(p.Pos.X-100, p.Pos.Y-100)
	if math.Abs(moved-PlayerSpeed) > 1e-9 {
		t.Fatalf("diagonal step length %v, want %v", moved, PlayerSpeed)
	}
	if p.Pos.X >= 100 || p.Pos.Y >= 100 {
		t.Fatalf("diagonal should keep direction, got %+v", p.Pos)
	}

	r.Update(Input{Right: true}, 1000, 1000)
	if math.Abs(p.Pos.Y-(100-PlayerSpeed/math.Sqrt2)) > 1e-9 {
		t.Fatalf("horizontal move changed Y: %+v", p.Pos)
	}
}

func TestPlayerClampedToExtent(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Spawn(KindPlayer, Vec{X: 0.2, Y: 255})
	r.Update(Input{Left: true, Down: true}, 256, 256)
	if p.Pos.X != 0 || p.Pos.Y != 256-ActorSize {
		t.Fatalf("not clamped: %+v", p.Pos)
	}
}

func TestZombieChasesWithinRange(t *testing.T) {
	r := NewRegistry()
	r.Spawn(KindPlayer, Vec{X: 32, Y: 32})
	near, _ := r.Spawn(KindZombie, Vec{X: 200, Y: 32})
	far, _ := r.Spawn(KindZombie, Vec{X: 900, Y: 32})

	// First update only detects the player; movement starts on the next one.
	r.Update(Input{}, 2000, 2000)
	if near.Behavior != BehaviorChasing || far.Behavior != BehaviorStatic {
		t.Fatalf("behaviour: near=%v far=%v", near.Behavior, far.Behavior)
	}
	r.Update(Input{}, 2000, 2000)
	if math.Abs(near.Pos.X-(200-ZombieSpeed)) > 1e-9 {
		t.Fatalf("zombie did not step towards player: %+v", near.Pos)
	}
	if far.Pos.X != 900 {
		t.Fatalf("static zombie moved: %+v", far.Pos)
	}
}

func TestSortedByY(t *testing.T) {
	r := NewRegistry()
	r.Spawn(KindPlayer, Vec{X: 0, Y: 50})
	r.Spawn(KindZombie, Vec{X: 0, Y: 10})
	r.Spawn(KindZombie, Vec{X: 0, Y: 50})
	got := r.SortedByY()
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if ids[0] != "Z1" || ids[1] != "P1" || ids[2] != "Z2" {
		t.Fatalf("draw order: %v", ids)
	}
}

func TestKindString(t *testing.T) {
	if KindPlayer.String() != "PLAYER" || KindZombie.String() != "ZOMBIE" {
		t.Fatalf("kind names")
	}
}
