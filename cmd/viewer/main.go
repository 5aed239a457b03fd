//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"pixelypse.dev/internal/sim/tiles"
	"pixelypse.dev/internal/sim/tuning"
	"pixelypse.dev/internal/sim/world"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		seed       = flag.Uint64("seed", 1337, "world seed")
		width      = flag.Int("width", 1280, "window width in pixels")
		height     = flag.Int("height", 720, "window height in pixels")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	mode, err := world.ParseBootstrap(tune.World.Bootstrap)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}

	s, err := newSession(world.WorldConfig{
		ID:                  "viewer",
		TickRateHz:          tune.TickRateHz,
		Seed:                *seed,
		ChunkSide:           tune.World.ChunkSide,
		TileSize:            tune.World.TileSize,
		ChunksX:             tune.World.ChunksX,
		ChunksY:             tune.World.ChunksY,
		Bootstrap:           mode,
		PlaceholderCode:     tiles.Code(tune.World.PlaceholderCode),
		WorkerQueue:         tune.Stream.WorkerQueue,
		StreamMargin:        tune.Stream.MarginChunks,
		MaxChunksPerRequest: tune.Stream.MaxChunksPerRequest,
	}, float64(*width), float64(*height))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	defer s.close()

	ebiten.SetWindowTitle("Pixelypse")
	ebiten.SetWindowSize(*width, *height)
	ebiten.SetTPS(ebiten.DefaultTPS)

	if err := ebiten.RunGame(newGame(s)); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal(err)
	}
}
