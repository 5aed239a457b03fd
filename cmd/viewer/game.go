//go:build ebiten

package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"pixelypse.dev/internal/sim/entities"
	"pixelypse.dev/internal/sim/tiles"
)

var kindColors = [tiles.Count]color.RGBA{
	tiles.KindGrass: {R: 0x4c, G: 0x9a, B: 0x2a, A: 0xff},
	tiles.KindSand:  {R: 0xd8, G: 0xc0, B: 0x7a, A: 0xff},
	tiles.KindDirt:  {R: 0x7a, G: 0x52, B: 0x30, A: 0xff},
	tiles.KindStone: {R: 0x80, G: 0x80, B: 0x88, A: 0xff},
}

// Game adapts a session to the ebiten.Game interface.
type Game struct {
	s *session

	tileImgs  [tiles.Count]*ebiten.Image
	actorImgs map[entities.Kind]*ebiten.Image

	showHUD bool
}

func newGame(s *session) *Game {
	ts := s.world.Config().TileSize
	g := &Game{s: s, showHUD: true, actorImgs: map[entities.Kind]*ebiten.Image{}}
	for i, c := range kindColors {
		img := ebiten.NewImage(ts, ts)
		img.Fill(c)
		g.tileImgs[i] = img
	}
	player := ebiten.NewImage(int(entities.ActorSize), int(entities.ActorSize))
	player.Fill(color.RGBA{R: 0x30, G: 0x60, B: 0xe0, A: 0xff})
	zombie := ebiten.NewImage(int(entities.ActorSize), int(entities.ActorSize))
	zombie.Fill(color.RGBA{R: 0xb0, G: 0x20, B: 0x20, A: 0xff})
	g.actorImgs[entities.KindPlayer] = player
	g.actorImgs[entities.KindZombie] = zombie
	return g
}

// Update reads WASD and advances the session by one tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	in := entities.Input{
		Up:    ebiten.IsKeyPressed(ebiten.KeyW),
		Left:  ebiten.IsKeyPressed(ebiten.KeyA),
		Down:  ebiten.IsKeyPressed(ebiten.KeyS),
		Right: ebiten.IsKeyPressed(ebiten.KeyD),
	}
	return g.s.step(in)
}

func (g *Game) Draw(screen *ebiten.Image) {
	cam := g.s.cam
	var op ebiten.DrawImageOptions
	for t := range g.s.world.VisibleTiles(cam) {
		op.GeoM.Reset()
		op.GeoM.Translate(float64(t.Pos.X)-cam.X, float64(t.Pos.Y)-cam.Y)
		screen.DrawImage(g.tileImgs[t.Kind], &op)
	}
	for _, a := range g.s.actors.SortedByY() {
		img := g.actorImgs[a.Kind]
		if img == nil {
			continue
		}
		op.GeoM.Reset()
		op.GeoM.Translate(a.Pos.X-cam.X, a.Pos.Y-cam.Y)
		screen.DrawImage(img, &op)
	}
	if g.showHUD {
		ebitenutil.DebugPrint(screen, g.s.status())
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(g.s.viewW), int(g.s.viewH)
}
