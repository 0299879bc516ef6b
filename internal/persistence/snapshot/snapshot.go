// Package snapshot exports a chunk store into one compressed file and imports it back.
package snapshot

import (
	"bufio"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"voxelmine.ai/internal/persistence/chunkstore"
	"voxelmine.ai/internal/sim/world/chunk"
)

const Version = 1

var ErrMismatch = errors.New("snapshot does not match world")

// Header is also written as a JSON line ahead of the gob body so tools can
// peek at it without decoding chunks.
type Header struct {
	Version      int    `json:"version"`
	Seed         int64  `json:"seed"`
	ChunkSize    int    `json:"chunk_size"`
	MaxHeight    int    `json:"max_height"`
	BlocksDigest string `json:"blocks_digest"`
	Chunks       int    `json:"chunks"`
	CreatedAt    string `json:"created_at"`
}

type SnapshotV1 struct {
	Header Header
	Chunks []ChunkV1
}

type ChunkV1 struct {
	CX               int
	CZ               int
	NeedsPropagation bool
	Voxels           []byte
	Lights           []byte
}

// Export reads every stored chunk. Records that fail to decode are skipped and
// counted.
func Export(ctx context.Context, store *chunkstore.Store, h Header) (SnapshotV1, int, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return SnapshotV1{}, 0, err
	}
	snap := SnapshotV1{Header: h}
	snap.Header.Version = Version
	skipped := 0
	for _, k := range keys {
		rec, ok, err := store.Load(ctx, k)
		if errors.Is(err, chunkstore.ErrCorrupt) {
			skipped++
			continue
		}
		if err != nil {
			return SnapshotV1{}, skipped, fmt.Errorf("load %s: %w", k, err)
		}
		if !ok {
			continue
		}
		snap.Chunks = append(snap.Chunks, ChunkV1{
			CX:               k.CX,
			CZ:               k.CZ,
			NeedsPropagation: rec.NeedsPropagation,
			Voxels:           rec.Voxels,
			Lights:           rec.Lights,
		})
	}
	snap.Header.Chunks = len(snap.Chunks)
	return snap, skipped, nil
}

// Import writes every chunk of snap into store after checking that its
// geometry and palette match want.
func Import(ctx context.Context, store *chunkstore.Store, snap SnapshotV1, want Header) (int, error) {
	h := snap.Header
	if h.ChunkSize != want.ChunkSize || h.MaxHeight != want.MaxHeight {
		return 0, fmt.Errorf("%w: chunk %dx%d, world %dx%d", ErrMismatch, h.ChunkSize, h.MaxHeight, want.ChunkSize, want.MaxHeight)
	}
	if want.BlocksDigest != "" && h.BlocksDigest != want.BlocksDigest {
		return 0, fmt.Errorf("%w: blocks digest %s, world %s", ErrMismatch, h.BlocksDigest, want.BlocksDigest)
	}
	n := h.ChunkSize * h.ChunkSize * h.MaxHeight
	for i, c := range snap.Chunks {
		if len(c.Voxels) != n || len(c.Lights) != n {
			return i, fmt.Errorf("chunk %d:%d: buffer length mismatch", c.CX, c.CZ)
		}
		rec := chunkstore.Record{
			Key:              chunk.Key{CX: c.CX, CZ: c.CZ},
			NeedsPropagation: c.NeedsPropagation,
			Voxels:           c.Voxels,
			Lights:           c.Lights,
		}
		if err := store.Save(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(snap.Chunks), nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	// The gob body carries the header too.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading JSON line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
