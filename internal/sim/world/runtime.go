package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"voxelmine.ai/internal/protocol"
	"voxelmine.ai/internal/sim/world/chunk"
	"voxelmine.ai/internal/sim/world/logic/mathx"
	"voxelmine.ai/internal/sim/world/logic/rates"
	"voxelmine.ai/internal/sim/world/stream"
)

type JoinRequest struct {
	SessionID string
	Out       chan []byte
	Resp      chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

// ViewRequest replaces a session's view.
type ViewRequest struct {
	SessionID string
	Center    chunk.Key
	Radius    int
	Voxels    bool
}

type EditRequest struct {
	SessionID string
	Updates   []protocol.EditUpdate
}

// maxSendsPerTick bounds how many CHUNK messages one session gets per tick.
const maxSendsPerTick = 8

type clientState struct {
	Out     chan []byte
	View    ViewRequest
	HasView bool
	// Sent maps a chunk to the mesh version the client last received.
	Sent  map[chunk.Key]uint64
	Edits rates.Window
}

func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }
func (w *World) Requests() chan<- ViewRequest { return w.requests }
func (w *World) Edits() chan<- EditRequest    { return w.editReqs }

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingEdits []EditRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			delete(w.clients, id)
		case req := <-w.requests:
			w.handleView(req)
		case req := <-w.editReqs:
			pendingEdits = append(pendingEdits, req)
		case <-ticker.C:
			w.step(ctx, pendingEdits)
			pendingEdits = pendingEdits[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce runs a single tick synchronously with the given inputs. It must
// not be called while Run is active; tests use it to drive the world.
func (w *World) StepOnce(ctx context.Context, joins []JoinRequest, views []ViewRequest, edits []EditRequest) WorldMetrics {
	for _, j := range joins {
		w.handleJoin(j)
	}
	for _, v := range views {
		w.handleView(v)
	}
	w.step(ctx, edits)
	return w.Metrics()
}

func (w *World) handleJoin(req JoinRequest) {
	w.clients[req.SessionID] = &clientState{Out: req.Out, Sent: map[chunk.Key]uint64{}}
	if req.Resp == nil {
		return
	}
	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       req.SessionID,
		WorldParams: protocol.WorldParams{
			ChunkSize:     w.cfg.ChunkSize,
			MaxHeight:     w.cfg.MaxHeight,
			MaxLightLevel: int(w.cfg.MaxLightLevel),
			TickRateHz:    w.cfg.TickRateHz,
			RenderRadius:  w.cfg.RenderRadius,
			Seed:          w.cfg.Seed,
		},
		Blocks: protocol.DigestRef{Digest: w.reg.Digest, Count: len(w.reg.Defs())},
	}}
}

func (w *World) handleView(req ViewRequest) {
	cl := w.clients[req.SessionID]
	if cl == nil {
		return
	}
	req.Radius = stream.ClampRadius(req.Radius, w.cfg.RenderRadius, w.cfg.RenderRadius)
	// A client that switches to voxel payloads needs every chunk again.
	if req.Voxels && !cl.View.Voxels {
		cl.Sent = map[chunk.Key]uint64{}
	}
	cl.View = req
	cl.HasView = true
}

func (w *World) step(ctx context.Context, edits []EditRequest) {
	start := time.Now()
	tick := w.tick.Add(1)

	for _, e := range edits {
		w.handleEdit(e)
	}

	centers := w.viewCenters()
	load := stream.ComputeWanted(centers, w.cfg.RenderRadius+stream.LoadMargin, w.loadCap())
	if err := w.EnsureChunks(ctx, load); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Printf("ensure chunks: %v", err)
	}
	w.evict(load, centers)

	for _, id := range w.sortedClients() {
		w.streamTo(w.clients[id])
	}

	if w.cfg.SaveEveryTicks > 0 && tick%uint64(w.cfg.SaveEveryTicks) == 0 {
		if n := w.SaveDirty(); n > 0 {
			w.logger.Printf("tick %d: queued %d chunks for saving", tick, n)
		}
	}
	w.publishMetrics(tick, time.Since(start))
}

func (w *World) loadCap() int {
	if w.cfg.MaxChunks > 0 {
		return w.cfg.MaxChunks
	}
	return 1 << 20
}

func (w *World) sortedClients() []string {
	ids := make([]string, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) viewCenters() []chunk.Key {
	var centers []chunk.Key
	for _, id := range w.sortedClients() {
		if cl := w.clients[id]; cl.HasView {
			centers = append(centers, cl.View.Center)
		}
	}
	return centers
}

// streamTo sends the ready chunks in a client's view whose mesh changed since
// the client last got them. A full outbox leaves the rest for the next tick.
func (w *World) streamTo(cl *clientState) {
	if !cl.HasView {
		return
	}
	sent := 0
	for _, k := range stream.ComputeWanted([]chunk.Key{cl.View.Center}, cl.View.Radius, w.loadCap()) {
		if sent >= maxSendsPerTick {
			return
		}
		c := w.chunks[k]
		if c == nil || c.Stage() != chunk.Ready {
			continue
		}
		_, version, err := w.meshFor(c)
		if err != nil || cl.Sent[k] == version {
			continue
		}
		msg, err := w.Protocol(k, cl.View.Voxels)
		if err != nil {
			continue
		}
		b, err := json.Marshal(msg)
		if err != nil {
			w.logger.Printf("marshal chunk %s: %v", k, err)
			continue
		}
		if !trySend(cl.Out, b) {
			return
		}
		cl.Sent[k] = version
		sent++
	}
}

func (w *World) handleEdit(req EditRequest) {
	cl := w.clients[req.SessionID]
	if cl == nil {
		return
	}
	if ok, cooldown := cl.Edits.Allow(w.tick.Load(), uint64(w.cfg.EditWindowTicks), w.cfg.EditsPerWindow, len(req.Updates)); !ok {
		w.reject(cl, protocol.ErrRateLimit, fmt.Sprintf("edit budget exhausted; retry in %d ticks", cooldown))
		return
	}
	ups := make([]chunk.VoxelUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		def, ok := w.reg.ByName(u.Type)
		if !ok {
			w.reject(cl, protocol.ErrUnknownBlock, "unknown block "+u.Type)
			return
		}
		c := w.chunkAt(u.Pos[0], u.Pos[2])
		if c == nil || u.Pos[1] < 0 || u.Pos[1] >= w.cfg.MaxHeight {
			w.reject(cl, protocol.ErrInvalidTarget, "position outside loaded world")
			return
		}
		if c.Stage() != chunk.Ready {
			w.reject(cl, protocol.ErrChunkNotReady, "chunk "+c.Key.String()+" is not ready")
			return
		}
		// Light floods reach into all eight neighbors.
		for _, n := range w.Neighbors(c.Key) {
			if n == nil {
				w.reject(cl, protocol.ErrChunkNotReady, "chunk "+c.Key.String()+" has unloaded neighbors")
				return
			}
		}
		ups = append(ups, chunk.VoxelUpdate{X: u.Pos[0], Y: u.Pos[1], Z: u.Pos[2], Type: def.ID})
	}
	if err := w.updateAs(ups, req.SessionID, ReasonPlayer); err != nil {
		w.reject(cl, protocol.ErrInvalidTarget, err.Error())
	}
}

func (w *World) reject(cl *clientState, code, message string) {
	if cl == nil {
		return
	}
	b, err := json.Marshal(protocol.NewError(code, message))
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}

// evict unloads chunks no view needs, farthest first, until the loaded count
// fits MaxChunks.
func (w *World) evict(keep []chunk.Key, centers []chunk.Key) {
	if w.cfg.MaxChunks <= 0 || len(w.chunks) <= w.cfg.MaxChunks {
		return
	}
	wanted := make(map[chunk.Key]struct{}, len(keep))
	for _, k := range keep {
		wanted[k] = struct{}{}
	}
	type item struct {
		k    chunk.Key
		dist int
	}
	var spare []item
	for k := range w.chunks {
		if _, ok := wanted[k]; ok {
			continue
		}
		d := 1 << 30
		for _, c := range centers {
			d = min(d, mathx.AbsInt(k.CX-c.CX)+mathx.AbsInt(k.CZ-c.CZ))
		}
		spare = append(spare, item{k: k, dist: d})
	}
	sort.Slice(spare, func(i, j int) bool {
		if spare[i].dist != spare[j].dist {
			return spare[i].dist > spare[j].dist
		}
		if spare[i].k.CX != spare[j].k.CX {
			return spare[i].k.CX < spare[j].k.CX
		}
		return spare[i].k.CZ < spare[j].k.CZ
	})
	for _, it := range spare {
		if len(w.chunks) <= w.cfg.MaxChunks {
			return
		}
		w.Unload(it.k)
	}
}

func trySend(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
