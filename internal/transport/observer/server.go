// Package observer serves read-only world state to local operators.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/world"
)

type BootstrapResponse struct {
	ProtocolVersion string               `json:"protocol_version"`
	Tick            uint64               `json:"tick"`
	WorldParams     protocol.WorldParams `json:"world_params"`
	Blocks          []registry.BlockDef  `json:"blocks"`
	BlocksDigest    string               `json:"blocks_digest"`
	Metrics         world.WorldMetrics   `json:"metrics"`
}

type Server struct {
	world *world.World
	log   *log.Logger
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{world: w, log: logger}
}

// BootstrapHandler reports world parameters, the block palette and the latest
// metrics. Only loopback clients are served.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		reg := s.world.Registry()
		resp := BootstrapResponse{
			ProtocolVersion: protocol.Version,
			Tick:            s.world.CurrentTick(),
			WorldParams: protocol.WorldParams{
				ChunkSize:     cfg.ChunkSize,
				MaxHeight:     cfg.MaxHeight,
				MaxLightLevel: int(cfg.MaxLightLevel),
				TickRateHz:    cfg.TickRateHz,
				RenderRadius:  cfg.RenderRadius,
				Seed:          cfg.Seed,
			},
			Blocks:       reg.Defs(),
			BlocksDigest: reg.Digest,
			Metrics:      s.world.Metrics(),
		}

		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(resp); err != nil && s.log != nil {
			s.log.Printf("observer bootstrap: %v", err)
		}
	}
}

func IsLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
