package chunkstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"voxelmine.ai/internal/sim/world/chunk"
)

// Backend stores opaque encoded records by chunk key.
type Backend interface {
	Get(ctx context.Context, key chunk.Key) ([]byte, bool, error)
	Put(ctx context.Context, key chunk.Key, data []byte) error
	Keys(ctx context.Context) ([]chunk.Key, error)
	Close() error
}

// Store encodes records on top of a Backend.
type Store struct {
	b Backend
}

func New(b Backend) *Store { return &Store{b: b} }

// Open builds a store for one of the configured backends: sqlite, leveldb, memory.
func Open(backend, path string) (*Store, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(backend) {
	case "sqlite":
		b, err = OpenSQLite(path)
	case "leveldb":
		b, err = OpenLevelDB(path)
	case "memory", "":
		b = NewMemory()
	default:
		return nil, fmt.Errorf("unknown chunk store backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	return New(b), nil
}

// Load returns the record for key. ok is false when nothing was stored.
func (s *Store) Load(ctx context.Context, key chunk.Key) (Record, bool, error) {
	raw, ok, err := s.b.Get(ctx, key)
	if err != nil || !ok {
		return Record{}, false, err
	}
	r, err := Decode(key, raw)
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

func (s *Store) Save(ctx context.Context, r Record) error {
	raw, err := Encode(r)
	if err != nil {
		return err
	}
	return s.b.Put(ctx, r.Key, raw)
}

func (s *Store) Keys(ctx context.Context) ([]chunk.Key, error) {
	keys, err := s.b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	chunk.SortKeys(keys)
	return keys, nil
}

func (s *Store) Close() error { return s.b.Close() }

func encodeKey(k chunk.Key) []byte {
	var b [8]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(int32(k.CX)))
	binary.BigEndian.PutUint32(b[4:8], uint32(int32(k.CZ)))
	return b[:]
}

func decodeKey(b []byte) (chunk.Key, bool) {
	if len(b) != 8 {
		return chunk.Key{}, false
	}
	return chunk.Key{
		CX: int(int32(binary.BigEndian.Uint32(b[0:4]))),
		CZ: int(int32(binary.BigEndian.Uint32(b[4:8]))),
	}, true
}
