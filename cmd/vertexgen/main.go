package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/vertex-source/internal/emission"
	"github.com/GoSim-25-26J-441/vertex-source/internal/engine"
	"github.com/GoSim-25-26J-441/vertex-source/internal/schedule"
	"github.com/GoSim-25-26J-441/vertex-source/internal/sink"
	"github.com/GoSim-25-26J-441/vertex-source/internal/vertex"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/config"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

func main() {
	var configPath string
	var outPath string
	var events int
	var logLevel string

	flag.StringVar(&configPath, "config", "config/config.yaml", "path to the source configuration")
	flag.StringVar(&outPath, "out", "-", "JSON lines output file, - for stdout")
	flag.IntVar(&events, "events", 0, "number of emission events (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")
	flag.Parse()

	if err := run(configPath, outPath, events, logLevel); err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outPath string, events int, logLevel string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	// stdout may carry the vertices, so logs go to stderr.
	logger.SetDefault(logger.NewText(logLevel, os.Stderr))
	if events <= 0 {
		events = cfg.Run.Events
	}

	rng := utils.NewRandSource(cfg.Seed)
	dist := emission.New(emission.FileSource{}, rng)
	opts, err := vertex.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("generator options: %w", err)
	}
	gen, err := vertex.Open(dist, opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "-" && outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	out := sink.NewJSONLines(w)

	eng := engine.NewEngine(utils.GenerateRunID())
	eng.RegisterHandler(engine.EventTypeEmission, engine.EmissionHandler(gen))
	eng.AddSink(out)
	eng.GetRunManager().SetConfig("source", cfg.Source.Path)
	eng.GetRunManager().SetConfig("seed", rng.Seed())
	eng.GetRunManager().SetMetadata("particle", gen.Particle().Name)

	if err := schedule.NewScheduler(cfg.Seed).ScheduleEmissions(eng, *cfg.Clock, events); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := eng.Run(ctx)
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flush output: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	r := eng.GetRunManager().GetRun()
	args := []any{
		"run_id", r.ID,
		"events", r.Metrics.EventsProcessed,
		"vertices", out.Written(),
		"sim_time_ns", eng.GetSimTime(),
		"duration", r.Duration,
	}
	if r.Metrics.Energy != nil {
		args = append(args, "energy_mean_mev", r.Metrics.Energy.Mean, "energy_p95_mev", r.Metrics.Energy.P95)
	}
	args = append(args, "total_weight", r.Metrics.TotalWeight)
	logger.Info("generation complete", args...)
	return nil
}
