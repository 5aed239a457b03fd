// Package entities holds the actors that move over the world: one player and any number of
// zombies. It only needs the world's pixel extent.
package entities

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

type Kind uint8

const (
	KindPlayer Kind = iota
	KindZombie
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "PLAYER"
	case KindZombie:
		return "ZOMBIE"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type Behavior uint8

const (
	BehaviorStatic Behavior = iota
	BehaviorChasing
)

const (
	// Zombies start chasing once the player is within this many pixels on both axes.
	ChaseRange = 256.0

	PlayerSpeed = 0.75
	ZombieSpeed = 0.5
	ActorSize   = 32.0
)

var ErrPlayerExists = errors.New("entities: registry already has a player")

type Vec struct {
	X, Y float64
}

type Actor struct {
	ID       string
	Kind     Kind
	Pos      Vec
	Speed    float64
	Behavior Behavior
}

// Input is the movement keys held during one update.
type Input struct {
	Up, Left, Down, Right bool
}

func (in Input) axes() (dx, dy float64) {
	if in.Left {
		dx--
	}
	if in.Right {
		dx++
	}
	if in.Up {
		dy--
	}
	if in.Down {
		dy++
	}
	return dx, dy
}

type Registry struct {
	actors   []*Actor
	byID     map[string]*Actor
	playerID string

	nextPlayer uint64
	nextZombie uint64
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*Actor{}}
}

func (r *Registry) Spawn(kind Kind, pos Vec) (*Actor, error) {
	a := &Actor{Kind: kind, Pos: pos}
	switch kind {
	case KindPlayer:
		if r.playerID != "" {
			return nil, ErrPlayerExists
		}
		r.nextPlayer++
		a.ID = fmt.Sprintf("P%d", r.nextPlayer)
		a.Speed = PlayerSpeed
		r.playerID = a.ID
	case KindZombie:
		r.nextZombie++
		a.ID = fmt.Sprintf("Z%d", r.nextZombie)
		a.Speed = ZombieSpeed
	default:
		return nil, fmt.Errorf("entities: unknown kind %v", kind)
	}
	r.actors = append(r.actors, a)
	r.byID[a.ID] = a
	return a, nil
}

func (r *Registry) Get(id string) (*Actor, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func (r *Registry) Player() (*Actor, bool) {
	if r.playerID == "" {
		return nil, false
	}
	return r.Get(r.playerID)
}

func (r *Registry) Len() int { return len(r.actors) }

// Update advances every actor by one step. Positions are clamped to [0, extent-ActorSize].
func (r *Registry) Update(in Input, extentW, extentH float64) {
	player, hasPlayer := r.Player()
	if hasPlayer {
		dx, dy := in.axes()
		if dx != 0 && dy != 0 {
			dx /= math.Sqrt2
			dy /= math.Sqrt2
		}
		player.Pos.X += dx * player.Speed
		player.Pos.Y += dy * player.Speed
		player.Pos = clamp(player.Pos, extentW, extentH)
	}

	for _, a := range r.actors {
		if a.Kind != KindZombie {
			continue
		}
		if !hasPlayer {
			a.Behavior = BehaviorStatic
			continue
		}
		if a.Behavior == BehaviorChasing {
			angle := math.Atan2(player.Pos.Y-a.Pos.Y, player.Pos.X-a.Pos.X)
			a.Pos.X += a.Speed * math.Cos(angle)
			a.Pos.Y += a.Speed * math.Sin(angle)
			a.Pos = clamp(a.Pos, extentW, extentH)
		}
		if math.Abs(a.Pos.X-player.Pos.X) < ChaseRange && math.Abs(a.Pos.Y-player.Pos.Y) < ChaseRange {
			a.Behavior = BehaviorChasing
		} else {
			a.Behavior = BehaviorStatic
		}
	}
}

// SortedByY returns actors in draw order: lower Y first, ties broken by ID.
func (r *Registry) SortedByY() []*Actor {
	out := make([]*Actor, len(r.actors))
	copy(out, r.actors)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Y != out[j].Pos.Y {
			return out[i].Pos.Y < out[j].Pos.Y
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clamp(p Vec, w, h float64) Vec {
	p.X = math.Max(0, math.Min(p.X, w-ActorSize))
	p.Y = math.Max(0, math.Min(p.Y, h-ActorSize))
	return p
}
