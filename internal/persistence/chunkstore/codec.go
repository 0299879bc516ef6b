// Package chunkstore persists chunk voxel and light buffers.
package chunkstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"voxelmine.ai/internal/sim/world/chunk"
)

var ErrCorrupt = errors.New("corrupt chunk record")

const recordVersion = 1

// Record is the persisted form of one chunk.
type Record struct {
	Key              chunk.Key
	NeedsPropagation bool
	Voxels           []byte
	Lights           []byte
}

func FromSnapshot(s chunk.Snapshot) Record {
	return Record{Key: s.Key, NeedsPropagation: s.NeedsPropagation, Voxels: s.Voxels, Lights: s.Lights}
}

// Digest hashes the buffers so unchanged chunks can skip a write.
func (r Record) Digest() uint64 {
	d := xxhash.New()
	if r.NeedsPropagation {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write(r.Voxels)
	_, _ = d.Write(r.Lights)
	return d.Sum64()
}

type wireRecord struct {
	Version          int
	NeedsPropagation bool
	Voxels           []byte
	Lights           []byte
	Checksum         uint64
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Encode compresses both buffers and frames them with a checksum of the raw data.
func Encode(r Record) ([]byte, error) {
	w := wireRecord{
		Version:          recordVersion,
		NeedsPropagation: r.NeedsPropagation,
		Voxels:           encoder.EncodeAll(r.Voxels, nil),
		Lights:           encoder.EncodeAll(r.Lights, nil),
		Checksum:         r.Digest(),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(key chunk.Key, raw []byte) (Record, error) {
	var w wireRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return Record{}, fmt.Errorf("chunk %s: %w: %v", key, ErrCorrupt, err)
	}
	if w.Version != recordVersion {
		return Record{}, fmt.Errorf("chunk %s: %w: version %d", key, ErrCorrupt, w.Version)
	}
	voxels, err := decoder.DecodeAll(w.Voxels, nil)
	if err != nil {
		return Record{}, fmt.Errorf("chunk %s voxels: %w: %v", key, ErrCorrupt, err)
	}
	lights, err := decoder.DecodeAll(w.Lights, nil)
	if err != nil {
		return Record{}, fmt.Errorf("chunk %s lights: %w: %v", key, ErrCorrupt, err)
	}
	r := Record{Key: key, NeedsPropagation: w.NeedsPropagation, Voxels: voxels, Lights: lights}
	if r.Digest() != w.Checksum {
		return Record{}, fmt.Errorf("chunk %s: %w: checksum mismatch", key, ErrCorrupt)
	}
	return r, nil
}
