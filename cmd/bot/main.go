package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/encoding"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "client name")
		radius = flag.Int("radius", 0, "view radius (0 uses the server default)")
		voxels = flag.Bool("voxels", false, "request voxel buffers with each chunk")
		walk   = flag.Duration("walk", 10*time.Second, "move the view center this often")
		place  = flag.String("place", "glass", "block placed near the view center on each move (empty disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: *name}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- msg
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*walk)
	defer ticker.Stop()

	b := &bot{conn: conn, logger: logger, radius: *radius, voxels: *voxels, place: *place}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if b.welcomed {
				b.move()
			}
		case msg, ok := <-msgs:
			if !ok {
				logger.Printf("connection closed chunks=%d vertices=%d", b.chunks, b.vertices)
				return
			}
			b.handle(msg)
		}
	}
}

type bot struct {
	conn   *websocket.Conn
	logger *log.Logger
	rng    *rand.Rand

	radius int
	voxels bool
	place  string

	welcomed bool
	params   protocol.WorldParams
	center   [2]int

	chunks   int
	vertices int
}

func (b *bot) handle(msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return
		}
		b.welcomed = true
		b.params = w.WorldParams
		b.rng = rand.New(rand.NewSource(w.WorldParams.Seed ^ time.Now().UnixNano()))
		b.logger.Printf("WELCOME session=%s chunk_size=%d render_radius=%d seed=%d blocks=%s",
			w.SessionID, w.WorldParams.ChunkSize, w.WorldParams.RenderRadius, w.WorldParams.Seed, w.Blocks.Digest)
		b.request()

	case protocol.TypeChunk:
		var c protocol.ChunkMsg
		if err := json.Unmarshal(msg, &c); err != nil {
			return
		}
		b.chunks++
		for _, m := range c.Meshes {
			b.vertices += m.Opaque.VertexCount() + m.Transparent.VertexCount()
		}
		if c.Voxels != "" {
			n := b.params.ChunkSize * b.params.ChunkSize * b.params.MaxHeight
			if _, err := encoding.DecodeRLE(c.Voxels, n); err != nil {
				b.logger.Printf("chunk %d:%d bad voxels: %v", c.X, c.Z, err)
			}
		}
		if b.chunks%25 == 0 {
			b.logger.Printf("tick=%d chunks=%d vertices=%d", c.Tick, b.chunks, b.vertices)
		}

	case protocol.TypeError:
		var e protocol.ErrorMsg
		if err := json.Unmarshal(msg, &e); err != nil {
			return
		}
		b.logger.Printf("ERROR code=%s message=%s", e.Code, e.Message)
	}
}

func (b *bot) request() {
	req := protocol.RequestChunksMsg{
		Type:            protocol.TypeRequestChunks,
		ProtocolVersion: protocol.Version,
		Center:          b.center,
		Radius:          b.radius,
		Voxels:          b.voxels,
	}
	_ = b.conn.WriteJSON(req)
}

func (b *bot) move() {
	b.center[0] += b.rng.Intn(3) - 1
	b.center[1] += b.rng.Intn(3) - 1
	b.request()
	if b.place == "" {
		return
	}
	size := b.params.ChunkSize
	x := b.center[0]*size + b.rng.Intn(size)
	z := b.center[1]*size + b.rng.Intn(size)
	edit := protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		Updates:         []protocol.EditUpdate{{Pos: [3]int{x, b.params.MaxHeight - 2, z}, Type: b.place}},
	}
	_ = b.conn.WriteJSON(edit)
}
