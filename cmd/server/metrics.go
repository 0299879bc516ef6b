package main

import (
	"fmt"
	"io"
	"sort"

	"voxelmine.ai/internal/sim/world"
)

// writeMetrics renders m in the Prometheus text exposition format.
func writeMetrics(out io.Writer, m world.WorldMetrics) {
	fmt.Fprintf(out, "# HELP voxelmine_world_tick Current world tick.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_tick gauge\n")
	fmt.Fprintf(out, "voxelmine_world_tick %d\n", m.Tick)

	fmt.Fprintf(out, "# HELP voxelmine_world_clients Current number of connected clients.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_clients gauge\n")
	fmt.Fprintf(out, "voxelmine_world_clients %d\n", m.Clients)

	fmt.Fprintf(out, "# HELP voxelmine_world_loaded_chunks Loaded chunk count.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_loaded_chunks gauge\n")
	fmt.Fprintf(out, "voxelmine_world_loaded_chunks %d\n", m.LoadedChunks)

	fmt.Fprintf(out, "# HELP voxelmine_world_chunk_stage Loaded chunks per pipeline stage.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_chunk_stage gauge\n")
	stages := make([]string, 0, len(m.Stages))
	for s := range m.Stages {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	for _, s := range stages {
		fmt.Fprintf(out, "voxelmine_world_chunk_stage{stage=%q} %d\n", s, m.Stages[s])
	}

	fmt.Fprintf(out, "# HELP voxelmine_world_dirty_chunks Chunks waiting to be saved.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_dirty_chunks gauge\n")
	fmt.Fprintf(out, "voxelmine_world_dirty_chunks %d\n", m.DirtyChunks)

	fmt.Fprintf(out, "# HELP voxelmine_world_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_queue_depth gauge\n")
	fmt.Fprintf(out, "voxelmine_world_queue_depth{queue=%q} %d\n", "join", m.QueueDepths.Join)
	fmt.Fprintf(out, "voxelmine_world_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)
	fmt.Fprintf(out, "voxelmine_world_queue_depth{queue=%q} %d\n", "requests", m.QueueDepths.Requests)
	fmt.Fprintf(out, "voxelmine_world_queue_depth{queue=%q} %d\n", "edits", m.QueueDepths.Edits)

	fmt.Fprintf(out, "# HELP voxelmine_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_world_step_ms gauge\n")
	fmt.Fprintf(out, "voxelmine_world_step_ms %.3f\n", m.StepMS)

	fmt.Fprintf(out, "# HELP voxelmine_chunk_saves_total Chunk save outcomes.\n")
	fmt.Fprintf(out, "# TYPE voxelmine_chunk_saves_total counter\n")
	fmt.Fprintf(out, "voxelmine_chunk_saves_total{result=%q} %d\n", "written", m.Saver.Written)
	fmt.Fprintf(out, "voxelmine_chunk_saves_total{result=%q} %d\n", "skipped", m.Saver.Skipped)
	fmt.Fprintf(out, "voxelmine_chunk_saves_total{result=%q} %d\n", "failed", m.Saver.Failed)
}
