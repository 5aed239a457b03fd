package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const ProtocolVersion = "1.0"

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	World  World  `yaml:"world"`
	Stream Stream `yaml:"stream"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Observer Observer `yaml:"observer"`
}

type World struct {
	ChunkSide       int    `yaml:"chunk_side"`
	TileSize        int    `yaml:"tile_size"`
	ChunksX         int    `yaml:"chunks_x"`
	ChunksY         int    `yaml:"chunks_y"`
	Bootstrap       string `yaml:"bootstrap"` // "template" | "generate"
	PlaceholderCode uint16 `yaml:"placeholder_code"`
}

type Stream struct {
	WorkerQueue         int `yaml:"worker_queue"`
	MarginChunks        int `yaml:"margin_chunks"`
	MaxChunksPerRequest int `yaml:"max_chunks_per_request"`
}

type Observer struct {
	MaxClients       int `yaml:"max_clients"`
	MaxChunksPerTick int `yaml:"max_chunks_per_tick"`
	SendQueue        int `yaml:"send_queue"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: ProtocolVersion,
		TickRateHz:      20,
		World: World{
			ChunkSide:       8,
			TileSize:        32,
			ChunksX:         8,
			ChunksY:         8,
			Bootstrap:       "template",
			PlaceholderCode: 1,
		},
		Stream: Stream{
			WorkerQueue:         4,
			MarginChunks:        1,
			MaxChunksPerRequest: 64,
		},
		SnapshotEveryTicks: 3000,
		Observer: Observer{
			MaxClients:       32,
			MaxChunksPerTick: 16,
			SendQueue:        64,
		},
	}
}

// Load reads path over Defaults, so a file only needs the fields it overrides.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate_hz must be > 0, got %d", t.TickRateHz))
	}
	if t.World.ChunkSide <= 0 || t.World.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("world.chunk_side and world.tile_size must be > 0"))
	}
	if t.World.ChunksX <= 0 || t.World.ChunksY <= 0 {
		errs = append(errs, fmt.Errorf("world.chunks_x and world.chunks_y must be > 0"))
	}
	switch t.World.Bootstrap {
	case "", "template", "generate":
	default:
		errs = append(errs, fmt.Errorf("world.bootstrap: unknown mode %q", t.World.Bootstrap))
	}
	if t.Stream.WorkerQueue < 0 || t.Stream.MaxChunksPerRequest < 0 || t.Stream.MarginChunks < 0 {
		errs = append(errs, fmt.Errorf("stream values must not be negative"))
	}
	if t.SnapshotEveryTicks < 0 {
		errs = append(errs, fmt.Errorf("snapshot_every_ticks must not be negative"))
	}
	return errors.Join(errs...)
}
