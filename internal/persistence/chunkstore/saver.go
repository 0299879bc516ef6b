package chunkstore

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"voxelmine.ai/internal/sim/world/chunk"
)

// Saver writes records on a background goroutine so the world loop never
// blocks on disk. Records whose content is unchanged since the last write
// are skipped. Queued records stay readable through Pending until written.
type Saver struct {
	store  *Store
	logger *log.Logger

	req  chan queued
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	digests map[chunk.Key]uint64
	pending map[chunk.Key]queued
	seq     uint64

	closed  atomic.Bool
	written atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

func NewSaver(store *Store, buffer int, logger *log.Logger) *Saver {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Saver{
		store:   store,
		logger:  logger,
		req:     make(chan queued, buffer),
		digests: map[chunk.Key]uint64{},
		pending: map[chunk.Key]queued{},
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

// Enqueue hands a record to the writer. It blocks when the buffer is full
// and reports false once the saver is closed.
func (s *Saver) Enqueue(r Record) bool {
	if s == nil || s.closed.Load() {
		return false
	}
	s.mu.Lock()
	s.seq++
	q := queued{rec: r, seq: s.seq}
	s.pending[r.Key] = q
	s.mu.Unlock()
	s.req <- q
	return true
}

// Pending returns the newest record for key that is queued but not yet
// written. Loaders must prefer it over the store.
func (s *Saver) Pending(key chunk.Key) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.pending[key]
	return q.rec, ok
}

// Remember records the digest of content already on disk, e.g. after a load.
func (s *Saver) Remember(r Record) {
	s.mu.Lock()
	s.digests[r.Key] = r.Digest()
	s.mu.Unlock()
}

func (s *Saver) loop() {
	defer s.wg.Done()
	for q := range s.req {
		r := q.rec
		d := r.Digest()
		s.mu.Lock()
		prev, ok := s.digests[r.Key]
		s.mu.Unlock()
		if ok && prev == d {
			s.skipped.Add(1)
			s.settle(q)
			continue
		}
		if err := s.store.Save(context.Background(), r); err != nil {
			s.failed.Add(1)
			if s.logger != nil {
				s.logger.Printf("chunk save %s: %v", r.Key, err)
			}
			s.settle(q)
			continue
		}
		s.mu.Lock()
		s.digests[r.Key] = d
		s.mu.Unlock()
		s.settle(q)
		s.written.Add(1)
	}
}

// settle drops q from the pending set unless a newer record replaced it.
func (s *Saver) settle(q queued) {
	s.mu.Lock()
	if cur, ok := s.pending[q.rec.Key]; ok && cur.seq == q.seq {
		delete(s.pending, q.rec.Key)
	}
	s.mu.Unlock()
}

type queued struct {
	rec Record
	seq uint64
}

type SaverStats struct {
	Written uint64 `json:"written"`
	Skipped uint64 `json:"skipped"`
	Failed  uint64 `json:"failed"`
}

func (s *Saver) Stats() SaverStats {
	return SaverStats{Written: s.written.Load(), Skipped: s.skipped.Load(), Failed: s.failed.Load()}
}

// Close drains pending records and waits for the writer to finish.
func (s *Saver) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.req)
	})
	s.wg.Wait()
}
