package protocol

import "voxelmine.ai/internal/sim/world/mesh"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	Blocks          DigestRef   `json:"blocks"`
}

type WorldParams struct {
	ChunkSize     int   `json:"chunk_size"`
	MaxHeight     int   `json:"max_height"`
	MaxLightLevel int   `json:"max_light_level"`
	TickRateHz    int   `json:"tick_rate_hz"`
	RenderRadius  int   `json:"render_radius"`
	Seed          int64 `json:"seed"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// REQUEST_CHUNKS (client -> server): replaces the client's view.
type RequestChunksMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Center          [2]int `json:"center"`
	Radius          int    `json:"radius"`
	Voxels          bool   `json:"voxels,omitempty"`
}

// CHUNK (server -> client)
type ChunkMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	X               int         `json:"x"`
	Z               int         `json:"z"`
	Meshes          []ChunkMesh `json:"meshes"`
	// Voxels is the RLE+base64 voxel buffer, sent only on request.
	Voxels string `json:"voxels,omitempty"`
}

type ChunkMesh struct {
	Opaque      *mesh.Geometry `json:"opaque"`
	Transparent *mesh.Geometry `json:"transparent"`
}

// EDIT (client -> server)
type EditMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Updates         []EditUpdate `json:"updates"`
}

type EditUpdate struct {
	Pos  [3]int `json:"pos"`
	Type string `json:"type"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}
