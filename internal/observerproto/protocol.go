package observerproto

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeSubscribe    = "SUBSCRIBE"
	TypeTick         = "TICK"
	TypeChunkSurface = "CHUNK_SURFACE"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to move the camera.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Camera          Camera `json:"camera"`
	MaxChunks       int    `json:"max_chunks,omitempty"`
}

// Camera is a rectangle in world pixel space.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	TilePalette     []string    `json:"tile_palette"`
}

type WorldParams struct {
	TickRateHz  int    `json:"tick_rate_hz"`
	ChunkSide   int    `json:"chunk_side"`
	TileSize    int    `json:"tile_size"`
	ChunksX     int    `json:"chunks_x"`
	ChunksY     int    `json:"chunks_y"`
	Seed        uint64 `json:"seed"`
	PixelWidth  uint32 `json:"pixel_width"`
	PixelHeight uint32 `json:"pixel_height"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Chunks        int `json:"chunks"`
	PendingChunks int `json:"pending_chunks"`

	Installed []ChunkRef `json:"installed,omitempty"`
}

type ChunkRef struct {
	CX int `json:"cx"`
	CY int `json:"cy"`
}

// Server -> Client. Full tile grid for a chunk.
// Encoding "PAL16_U16LE": base64 of little-endian uint16 tile codes, row-major (x fastest),
// chunk_side*chunk_side entries.
type ChunkSurfaceMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CY              int    `json:"cy"`
	OriginX         int    `json:"origin_x"`
	OriginY         int    `json:"origin_y"`
	Placeholder     bool   `json:"placeholder,omitempty"`
	Encoding        string `json:"encoding"`
	Data            string `json:"data"`
}
