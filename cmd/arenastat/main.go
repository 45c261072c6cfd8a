// Command arenastat runs an allocation workload against an arena and logs
// how its chunks grow.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"github.com/pavanmanishd/arena/v2"
	"github.com/pavanmanishd/arena/v2/internal/pflagx"
	"github.com/spf13/pflag"
)

var (
	EnvPrefix = "ARENASTAT_"
	Workload  = pflag.StringP("workload", "w", "ints", "workload to run ("+workloadNames()+")")
	Count     = pflag.IntP("count", "n", 100000, "allocations per round")
	Capacity  = pflagx.BytesP("capacity", "c", 0, "capacity of the first chunk")
	Limit     = pflagx.BytesP("limit", "", 0, "allocation limit (none if unset)")
	Allocator = pflag.String("allocator", "heap", "chunk allocator (heap, pool, mmap)")
	Resets    = pflag.Int("resets", 3, "times to reset the arena and run the workload again")
	LogLevel  = pflagx.LevelP("log-level", "L", slog.LevelInfo, "log level (debug shows chunk events)")
	LogJSON   = pflag.Bool("log-json", false, "use json logs")
	Help      = pflag.BoolP("help", "h", false, "show this help text")
)

func main() {
	pflagx.ParseEnv(EnvPrefix)
	pflag.Parse()

	if *Help || pflag.NArg() != 0 {
		fmt.Printf("usage: %s [options]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	if _, ok := workloads[*Workload]; !ok {
		fmt.Fprintf(os.Stderr, "error: unknown workload %q\n", *Workload)
		os.Exit(2)
	}
	if *Count < 0 || *Resets < 0 {
		fmt.Fprintf(os.Stderr, "error: count and resets must not be negative\n")
		os.Exit(2)
	}

	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: LogLevel,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: LogLevel,
		})))
	}
	slog.SetLogLoggerLevel(LogLevel.Level())

	if err := run(); err != nil {
		if errors.Is(err, arena.ErrAlloc) {
			slog.Error("out of memory", "error", err)
		} else {
			slog.Error("failed to run workload", "error", err)
		}
		os.Exit(1)
	}
}

func run() error {
	alloc, err := chunkAllocator(*Allocator)
	if err != nil {
		return err
	}

	opts := []arena.Option{
		arena.WithAllocator(alloc),
		arena.WithLogger(slog.Default()),
	}
	if pflag.CommandLine.Changed("limit") {
		opts = append(opts, arena.WithAllocationLimit(int(*Limit)))
	}

	a, err := arena.TryWithCapacity(int(*Capacity), opts...)
	if err != nil {
		return fmt.Errorf("create arena with capacity %s: %w", humanize.IBytes(uint64(*Capacity)), err)
	}
	defer a.Release()

	work := workloads[*Workload]
	for round := 0; round <= *Resets; round++ {
		start := time.Now()
		n, err := work(a, *Count)
		elapsed := time.Since(start)

		m := a.Metrics()
		slog.Info("workload: round done",
			"workload", *Workload,
			"round", round,
			"allocations", humanize.Comma(int64(n)),
			"elapsed", elapsed,
			"in_use", humanize.IBytes(uint64(m.SizeInUse)),
			"allocated", humanize.IBytes(uint64(m.AllocatedBytes)),
			"chunks", m.NumChunks,
			"utilization", fmt.Sprintf("%.1f%%", m.Utilization*100),
		)
		if err != nil {
			return fmt.Errorf("round %d after %d allocations: %w", round, n, err)
		}
		if round != *Resets {
			a.Reset()
		}
	}
	slog.Info("workload: done", "metrics", a.Metrics().String())
	return nil
}

func chunkAllocator(name string) (arena.Allocator, error) {
	switch name {
	case "heap":
		return arena.HeapAllocator{}, nil
	case "pool":
		return arena.PoolAllocator{}, nil
	case "mmap":
		return arena.MmapAllocator{}, nil
	default:
		return nil, fmt.Errorf("unknown allocator %q", name)
	}
}

func workloadNames() string {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
