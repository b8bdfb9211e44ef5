package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/slotcore/ecs"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	churn := flag.Float64("churn", 0.05, "Fraction of live entities removed and replaced every frame.")
	minDeleted := flag.Int("min-deleted", ecs.MinDeletedElements, "Freed slots required before a slot is reused.")
	seed := flag.Int64("seed", 1, "Random seed.")
	profileMode := flag.String("profile", "", "Write a profile to the working directory: cpu, mem or block.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	if stop := startProfile(*profileMode); stop != nil {
		defer stop()
	}

	log.Println("Starting ECS stress test...")

	// 1. Setup Directory and Scheduler
	dir := ecs.NewDirectory(ecs.WithAllocatorOptions(ecs.WithMinDeletedElements(*minDeleted)))
	ecs.RegisterComponent[Velocity](dir)
	ecs.RegisterComponent[Lifetime](dir)

	rng := rand.New(rand.NewSource(*seed))
	churnSystem := &ChurnSystem{Rate: *churn, Target: *entityCount, rng: rng}
	scheduler := ecs.NewScheduler(dir)
	scheduler.Register(&MovementSystem{})
	scheduler.Register(&AgingSystem{})
	scheduler.Register(churnSystem)

	// 2. Populate the directory with initial entities
	log.Printf("Populating directory with %d entities...\n", *entityCount)
	for i := 0; i < *entityCount; i++ {
		if _, err := dir.Create(randomDescriptor(rng)); err != nil {
			log.Fatalf("Failed to create entity: %v", err)
		}
	}
	log.Println("Population complete.")

	// 3. Run the simulation loop
	report := &Report{
		Duration:       *duration,
		Entities:       *entityCount,
		ChurnRate:      *churn,
		MinDeleted:     *minDeleted,
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	log.Printf("Running simulation for %s...\n", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			scheduler.Once(float64(deltaTime) / float64(time.Second))
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	report.Created = churnSystem.Created
	report.Removed = churnSystem.Removed
	report.Directory = dir.CollectStats()
	report.Scheduler = scheduler.GetStats()
	report.MaxGeneration = maxGeneration(dir.Allocator())
	runtime.ReadMemStats(&report.MemStatsEnd)

	log.Println("Simulation finished.")

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")

	log.Println("Stress test complete.")
}

func startProfile(mode string) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfileAllocs
	case "block":
		opt = profile.BlockProfile
	default:
		log.Fatalf("Unknown profile mode %q", mode)
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	return p.Stop
}

func maxGeneration(slots *ecs.SlotAllocator) uint32 {
	var highest uint32
	for index := uint32(0); int(index) < slots.Cap(); index++ {
		if gen, ok := slots.GenerationOf(index); ok && gen > highest {
			highest = gen
		}
	}
	return highest
}
