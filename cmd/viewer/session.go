package main

import (
	"fmt"

	"pixelypse.dev/internal/sim/entities"
	"pixelypse.dev/internal/sim/world"
	"pixelypse.dev/internal/sim/world/view"
)

// session couples a world with the actors walking on it. Everything runs on the caller's
// goroutine; the window loop calls step once per frame.
type session struct {
	world  *world.World
	actors *entities.Registry

	viewW, viewH float64
	cam          view.Rect
}

func newSession(cfg world.WorldConfig, viewW, viewH float64) (*session, error) {
	w, err := world.New(cfg)
	if err != nil {
		return nil, err
	}
	pw, ph, err := w.PixelExtent()
	if err != nil {
		w.Close()
		return nil, err
	}
	reg := entities.NewRegistry()
	if _, err := reg.Spawn(entities.KindPlayer, entities.Vec{X: float64(pw) / 2, Y: float64(ph) / 2}); err != nil {
		w.Close()
		return nil, err
	}
	if _, err := reg.Spawn(entities.KindZombie, entities.Vec{X: 0, Y: 0}); err != nil {
		w.Close()
		return nil, err
	}
	s := &session{world: w, actors: reg, viewW: viewW, viewH: viewH}
	s.follow()
	return s, nil
}

func (s *session) close() { s.world.Close() }

// step moves the actors, re-centres the camera, streams chunks around it and advances the world.
func (s *session) step(in entities.Input) error {
	pw, ph, err := s.world.PixelExtent()
	if err != nil {
		return err
	}
	s.actors.Update(in, float64(pw), float64(ph))
	s.follow()
	if err := s.world.RequestAround(s.cam, 0); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return s.world.Step()
}

func (s *session) follow() {
	p, ok := s.actors.Player()
	if !ok {
		return
	}
	pw, ph, err := s.world.PixelExtent()
	if err != nil {
		return
	}
	centre := view.Point{
		X: int(p.Pos.X + entities.ActorSize/2),
		Y: int(p.Pos.Y + entities.ActorSize/2),
	}
	s.cam = view.Follow(centre, s.viewW, s.viewH, pw, ph)
}

func (s *session) status() string {
	m := s.world.Metrics()
	p, _ := s.actors.Player()
	var px, py float64
	if p != nil {
		px, py = p.Pos.X, p.Pos.Y
	}
	return fmt.Sprintf("tick %d  chunks %d/%d generated  pending %d\nplayer %.0f,%.0f",
		m.Tick, m.GeneratedChunks, m.Chunks, m.PendingChunks, px, py)
}
