package chunkstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/df-mc/goleveldb/leveldb"

	"voxelmine.ai/internal/sim/world/chunk"
)

type LevelDB struct {
	db *leveldb.DB
}

func OpenLevelDB(dir string) (*LevelDB, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(_ context.Context, key chunk.Key) ([]byte, bool, error) {
	data, err := l.db.Get(encodeKey(key), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return data, true, nil
}

func (l *LevelDB) Put(_ context.Context, key chunk.Key, data []byte) error {
	return l.db.Put(encodeKey(key), data, nil)
}

func (l *LevelDB) Keys(_ context.Context) ([]chunk.Key, error) {
	it := l.db.NewIterator(nil, nil)
	defer it.Release()
	var keys []chunk.Key
	for it.Next() {
		if k, ok := decodeKey(it.Key()); ok {
			keys = append(keys, k)
		}
	}
	return keys, it.Error()
}

func (l *LevelDB) Close() error { return l.db.Close() }
