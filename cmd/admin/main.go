package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"voxelmine.ai/internal/persistence/chunkstore"
	persistlog "voxelmine.ai/internal/persistence/log"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/tuning"
	"voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/sim/world/chunk"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "edits":
			editsCmd(os.Args[2:])
			return
		case "rollback":
			rollbackCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "bootstrap":
			bootstrapCmd(os.Args[2:])
			return
		case "chunks":
			chunksCmd(os.Args[2:])
			return
		case "export":
			exportCmd(os.Args[2:])
			return
		case "import":
			importCmd(os.Args[2:])
			return
		}
	}
	chunksCmd(os.Args[1:])
}

type storeFlags struct {
	configDir *string
	dataDir   *string
	backend   *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		configDir: fs.String("configs", "./configs", "config directory"),
		dataDir:   fs.String("data", "./data", "runtime data directory"),
		backend:   fs.String("store", "", "chunk store backend (default: engine.yaml)"),
	}
}

func (f storeFlags) tuning() tuning.Tuning {
	tu, err := tuning.Load(filepath.Join(*f.configDir, "engine.yaml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load engine config:", err)
		os.Exit(1)
	}
	if *f.backend != "" {
		tu.Store.Backend = *f.backend
	}
	return tu
}

func (f storeFlags) open(tu tuning.Tuning) *chunkstore.Store {
	if tu.Store.Backend == "memory" {
		fmt.Fprintln(os.Stderr, "memory store has nothing to inspect")
		os.Exit(2)
	}
	s, err := chunkstore.Open(tu.Store.Backend, filepath.Join(*f.dataDir, filepath.Base(tu.Store.Path)))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return s
}

func chunksCmd(args []string) {
	fs := flag.NewFlagSet("chunks", flag.ExitOnError)
	sf := addStoreFlags(fs)
	_ = fs.Parse(args)

	s := sf.open(sf.tuning())
	defer s.Close()
	keys, err := s.Keys(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "keys:", err)
		os.Exit(1)
	}
	for _, k := range keys {
		fmt.Println(k)
	}
}

type inspectReport struct {
	Key              chunk.Key      `json:"key"`
	NeedsPropagation bool           `json:"needs_propagation"`
	Blocks           map[string]int `json:"blocks"`
	MaxSun           uint8          `json:"max_sun"`
	MaxTorch         uint8          `json:"max_torch"`
	LitVoxels        int            `json:"lit_voxels"`
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	sf := addStoreFlags(fs)
	cx := fs.Int("x", 0, "chunk x")
	cz := fs.Int("z", 0, "chunk z")
	_ = fs.Parse(args)

	tu := sf.tuning()
	reg, err := registry.Load(filepath.Join(*sf.configDir, "blocks.json"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load blocks:", err)
		os.Exit(1)
	}
	s := sf.open(tu)
	defer s.Close()

	key := chunk.Key{CX: *cx, CZ: *cz}
	rec, ok, err := s.Load(context.Background(), key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "chunk %s not stored\n", key)
		os.Exit(2)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(inspect(rec, reg))
}

func inspect(rec chunkstore.Record, reg *registry.Registry) inspectReport {
	out := inspectReport{Key: rec.Key, NeedsPropagation: rec.NeedsPropagation, Blocks: map[string]int{}}
	for _, id := range rec.Voxels {
		name := reg.Get(id).Name
		if name == "" {
			name = "#" + strconv.Itoa(int(id))
		}
		out.Blocks[name]++
	}
	for _, l := range rec.Lights {
		torch, sun := l&0x0F, l>>4
		if torch > out.MaxTorch {
			out.MaxTorch = torch
		}
		if sun > out.MaxSun {
			out.MaxSun = sun
		}
		if l != 0 {
			out.LitVoxels++
		}
	}
	return out
}

func editsCmd(args []string) {
	fs := flag.NewFlagSet("edits", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	sinceTick := fs.Uint64("since_tick", 0, "first tick (inclusive)")
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (optional)")
	_ = fs.Parse(args)

	min, max, all := [3]int{}, [3]int{}, true
	if strings.TrimSpace(*aabb) != "" {
		var err error
		min, max, err = parseAABB(*aabb)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -aabb:", err)
			os.Exit(2)
		}
		all = false
	}
	enc := json.NewEncoder(os.Stdout)
	err := persistlog.ReadEdits(*dataDir, func(e world.EditEntry) error {
		if e.Tick < *sinceTick {
			return nil
		}
		if !all && !withinAABB([3]int{e.X, e.Y, e.Z}, min, max) {
			return nil
		}
		return enc.Encode(e)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read edits:", err)
		os.Exit(1)
	}
}

func rollbackCmd(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	sf := addStoreFlags(fs)
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (required)")
	sinceTick := fs.Uint64("since_tick", 0, "rollback edits since tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "rollback edits up to tick (inclusive, optional)")
	dryRun := fs.Bool("dry_run", false, "report without writing")
	_ = fs.Parse(args)

	if strings.TrimSpace(*aabb) == "" {
		fmt.Fprintln(os.Stderr, "missing -aabb")
		os.Exit(2)
	}
	min, max, err := parseAABB(*aabb)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -aabb:", err)
		os.Exit(2)
	}

	recs, err := readEdits(*sf.dataDir, *sinceTick, *toTick, min, max)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read edits:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no matching edits; nothing to rollback")
		return
	}

	tu := sf.tuning()
	s := sf.open(tu)
	defer s.Close()

	ctx := context.Background()
	chunks := map[chunk.Key]*chunkstore.Record{}
	for _, r := range recs {
		k := chunk.KeyOf(r.Entry.X, r.Entry.Z, tu.ChunkSize)
		if _, seen := chunks[k]; seen {
			continue
		}
		rec, ok, err := s.Load(ctx, k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", k, err)
			os.Exit(1)
		}
		if !ok {
			chunks[k] = nil
			continue
		}
		chunks[k] = &rec
	}

	applied, skipped, touched := applyRollback(chunks, recs, tu.ChunkSize, tu.MaxHeight)
	if !*dryRun {
		for _, k := range touched {
			if err := s.Save(ctx, *chunks[k]); err != nil {
				fmt.Fprintf(os.Stderr, "save %s: %v\n", k, err)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("rollback ok: aabb=%s since=%d to=%d entries=%d applied=%d skipped=%d chunks=%d dry_run=%v\n",
		*aabb, *sinceTick, *toTick, len(recs), applied, skipped, len(touched), *dryRun)
}

type editRec struct {
	Seq   uint64
	Entry world.EditEntry
}

func readEdits(dataDir string, sinceTick, toTick uint64, min, max [3]int) ([]editRec, error) {
	var out []editRec
	var seq uint64
	err := persistlog.ReadEdits(dataDir, func(e world.EditEntry) error {
		seq++
		if e.Tick < sinceTick || (toTick > 0 && e.Tick > toTick) {
			return nil
		}
		if !withinAABB([3]int{e.X, e.Y, e.Z}, min, max) {
			return nil
		}
		out = append(out, editRec{Seq: seq, Entry: e})
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Newest first so the oldest From value wins.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entry.Tick != out[j].Entry.Tick {
			return out[i].Entry.Tick > out[j].Entry.Tick
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// applyRollback writes each edit's From value back into the stored voxels.
// Touched chunks drop their light and are flagged for propagation so the
// world relights them on the next load.
func applyRollback(chunks map[chunk.Key]*chunkstore.Record, recs []editRec, size, height int) (applied, skipped int, touched []chunk.Key) {
	seen := map[chunk.Key]bool{}
	for _, r := range recs {
		e := r.Entry
		k := chunk.KeyOf(e.X, e.Z, size)
		rec := chunks[k]
		if rec == nil || e.Y < 0 || e.Y >= height {
			skipped++
			continue
		}
		lx, lz := e.X-k.CX*size, e.Z-k.CZ*size
		i := (lx*height+e.Y)*size + lz
		if i < 0 || i >= len(rec.Voxels) {
			skipped++
			continue
		}
		rec.Voxels[i] = e.From
		applied++
		if !seen[k] {
			seen[k] = true
			touched = append(touched, k)
		}
	}
	for _, k := range touched {
		rec := chunks[k]
		for i := range rec.Lights {
			rec.Lights[i] = 0
		}
		rec.NeedsPropagation = true
	}
	chunk.SortKeys(touched)
	return applied, skipped, touched
}

func withinAABB(pos [3]int, min, max [3]int) bool {
	return pos[0] >= min[0] && pos[0] <= max[0] &&
		pos[1] >= min[1] && pos[1] <= max[1] &&
		pos[2] >= min[2] && pos[2] <= max[2]
}

func parseAABB(s string) (min, max [3]int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return min, max, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return min, max, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return min, max, err
	}
	for i := 0; i < 3; i++ {
		if a[i] <= b[i] {
			min[i], max[i] = a[i], b[i]
		} else {
			min[i], max[i] = b[i], a[i]
		}
	}
	return min, max, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
