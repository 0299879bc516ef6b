package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/chunk"
)

const outboxSize = 64

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 256 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		if s.log != nil {
			s.log.Printf("session %s connected from %s", sessionID, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.route(sessionID, msg, out)
		}

		// Cleanup.
		s.world.Leave() <- sessionID
		if s.log != nil {
			s.log.Printf("session %s disconnected", sessionID)
		}
	}
}

func (s *Server) route(sessionID string, msg []byte, out chan []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		reply(out, protocol.NewError(protocol.ErrProtoBadRequest, "malformed json"))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		reply(out, protocol.NewError(protocol.ErrProtoVersion, "want protocol_version "+protocol.Version))
		return
	}
	switch base.Type {
	case protocol.TypeRequestChunks:
		var req protocol.RequestChunksMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			reply(out, protocol.NewError(protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		s.world.Requests() <- world.ViewRequest{
			SessionID: sessionID,
			Center:    chunk.Key{CX: req.Center[0], CZ: req.Center[1]},
			Radius:    req.Radius,
			Voxels:    req.Voxels,
		}
	case protocol.TypeEdit:
		var req protocol.EditMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			reply(out, protocol.NewError(protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		if len(req.Updates) == 0 {
			reply(out, protocol.NewError(protocol.ErrBadRequest, "empty edit"))
			return
		}
		s.world.Edits() <- world.EditRequest{SessionID: sessionID, Updates: req.Updates}
	default:
		reply(out, protocol.NewError(protocol.ErrProtoBadRequest, "unexpected message type "+base.Type))
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, outboxSize)
	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{SessionID: sessionID, Out: out, Resp: respCh}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- sessionID
		return "", nil
	}
	return sessionID, out
}

// reply queues a message without blocking the reader.
func reply(out chan []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
