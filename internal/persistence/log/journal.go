// Package log writes and reads the compressed voxel edit journal.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelmine.ai/internal/sim/world"
)

const segmentLayout = "2006-01-02"

// Journal appends JSON lines to zstd segments that roll over daily.
type Journal struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	day string
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJournal(dir, prefix string) *Journal {
	return &Journal{dir: dir, prefix: prefix, now: time.Now}
}

func (j *Journal) Append(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	day := j.now().UTC().Format(segmentLayout)
	if day != j.day {
		if err := j.openLocked(day); err != nil {
			return err
		}
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *Journal) openLocked(day string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.segment(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f, j.enc, j.day = f, enc, day
	j.w = bufio.NewWriterSize(enc, 64*1024)
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
		j.w = nil
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.day = ""
	return err
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) segment(day string) string {
	return filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.prefix, day))
}

// Segments lists journal files under dir in chronological order.
func Segments(dir, prefix string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// EditLog records applied voxel edits.
type EditLog struct{ j *Journal }

func NewEditLog(worldDir string) *EditLog {
	return &EditLog{j: NewJournal(filepath.Join(worldDir, "edits"), "edits")}
}

func (l *EditLog) WriteEdit(e world.EditEntry) error { return l.j.Append(e) }
func (l *EditLog) Close() error                      { return l.j.Close() }

// ReadEdits decodes every entry of the edit journal under worldDir.
// Segments concatenated by appends decode as one stream.
func ReadEdits(worldDir string, fn func(world.EditEntry) error) error {
	paths, err := Segments(filepath.Join(worldDir, "edits"), "edits")
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := readSegment(p, fn); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

func readSegment(path string, fn func(world.EditEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReader(dec)
	for {
		line, err := r.ReadString('\n')
		if s := strings.TrimSpace(line); s != "" {
			var e world.EditEntry
			if uerr := json.Unmarshal([]byte(s), &e); uerr != nil {
				return uerr
			}
			if ferr := fn(e); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
