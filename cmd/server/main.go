package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"voxelmine.ai/internal/persistence/chunkstore"
	persistlog "voxelmine.ai/internal/persistence/log"
	"voxelmine.ai/internal/sim/engine"
	"voxelmine.ai/internal/sim/registry"
	"voxelmine.ai/internal/sim/tuning"
	"voxelmine.ai/internal/sim/world"
	"voxelmine.ai/internal/transport/observer"
	"voxelmine.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		enginePath = flag.String("engine", "", "path to engine.yaml (default: <configs>/engine.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory (chunk store + edit journal)")
		seed       = flag.Int64("seed", 0, "override worldgen seed (0 keeps engine.yaml)")
		backend    = flag.String("store", "", "chunk store backend: sqlite|leveldb|memory (default: engine.yaml)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := *enginePath
	if tp == "" {
		tp = filepath.Join(*configDir, "engine.yaml")
	}
	tu, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load engine config: %v", err)
	}
	if *seed != 0 {
		tu.WorldGen.Seed = *seed
	}
	if *backend != "" {
		tu.Store.Backend = *backend
	}

	reg, err := registry.Load(filepath.Join(*configDir, "blocks.json"))
	if err != nil {
		logger.Fatalf("load blocks: %v", err)
	}
	logger.Printf("blocks loaded count=%d digest=%s", len(reg.Defs()), reg.Digest)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("mkdir data: %v", err)
	}
	storePath := filepath.Join(*dataDir, filepath.Base(tu.Store.Path))
	store, err := chunkstore.Open(tu.Store.Backend, storePath)
	if err != nil {
		logger.Fatalf("open chunk store (%s): %v", tu.Store.Backend, err)
	}
	defer store.Close()

	edits := persistlog.NewEditLog(*dataDir)
	defer edits.Close()

	w, err := engine.NewWorld(tu, reg, world.Options{Store: store, Edits: edits, Logger: logger})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, w.Metrics())
	})

	enableAdminHTTP := envBool("VM_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("VM_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !observer.IsLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				Tick    uint64             `json:"tick"`
				Store   string             `json:"store"`
				Metrics world.WorldMetrics `json:"metrics"`
			}{
				Tick:    w.CurrentTick(),
				Store:   tu.Store.Backend,
				Metrics: w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/observer/bootstrap", observer.NewServer(w, logger).BootstrapHandler())
	} else {
		logger.Printf("admin endpoints disabled (VM_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (VM_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s seed=%d chunk_size=%d max_height=%d", *addr, tu.WorldGen.Seed, tu.ChunkSize, tu.MaxHeight)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}

	<-done
	w.Close()
	logger.Printf("shutdown complete tick=%d", w.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
