package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/odr2lanelet-go/internal/convert"
	"github.com/wegman-software/odr2lanelet-go/internal/hook"
	"github.com/wegman-software/odr2lanelet-go/internal/lanelet"
	"github.com/wegman-software/odr2lanelet-go/internal/logger"
	"github.com/wegman-software/odr2lanelet-go/internal/metrics"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a lane-graph snapshot into a Lanelet2 map",
	Long: `Convert an OpenDRIVE-style lane-graph snapshot into a Lanelet2 OSM map.

The conversion runs in four phases:
  1. Standard (non-junction) roads
  2. Junction paths
  3. Crosswalks
  4. Traffic lights and stop lines

Borders of adjacent lanes are shared, boundary vertices of connected
segments are deduplicated, and the result is validated for topology
consistency before the run finishes.`,
	Run: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&cfg.OutputFile, "output", "o", cfg.OutputFile, "Output Lanelet2 map file (*.osm)")
	convertCmd.Flags().StringVar(&cfg.SpeedLimit, "speed-limit", cfg.SpeedLimit, "Default speed limit tag for road lanelets")
	convertCmd.Flags().StringVar(&cfg.HookScript, "hook", cfg.HookScript, "Lua script adjusting lanelet attributes")
	convertCmd.Flags().DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for system metrics logging (e.g., 10s, 1m)")
}

func runConvert(cmd *cobra.Command, args []string) {
	log := logger.Get()
	defer logger.Sync()

	if err := loadConfigFile(cmd); err != nil {
		exitWithError("failed to load config file", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	log.Info("Loading lane-graph snapshot", zap.String("input", cfg.InputFile))
	odrMap, err := odr.LoadSnapshot(cfg.InputFile)
	if err != nil {
		exitWithError("failed to load snapshot", err)
	}

	var attrHook convert.AttributeHook
	if cfg.HookScript != "" {
		runtime := hook.NewRuntime()
		defer runtime.Close()
		if err := runtime.LoadFile(cfg.HookScript); err != nil {
			exitWithError("failed to load hook script", err)
		}
		attrHook = runtime
		log.Info("Loaded attribute hook", zap.String("script", cfg.HookScript))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := metrics.NewCollector(cfg.MetricsInterval, log)
	go collector.Start(ctx)

	log.Info("Starting conversion",
		zap.Float64("sampling_distance", cfg.SamplingDistance),
		zap.Int("workers", cfg.Workers),
	)
	start := time.Now()

	converter := convert.New(odrMap, cfg, log, attrHook)
	mesh, err := converter.Convert(ctx)
	if err != nil {
		exitWithError("conversion failed", err)
	}

	stats := mesh.Stats()
	log.Info("Conversion complete",
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
		zap.Int("points", stats.Points),
		zap.Int("linestrings", stats.Linestrings),
		zap.Int("lanelets", stats.Lanelets),
		zap.Int("regulatory_elements", stats.RegulatoryElements),
	)

	if err := lanelet.WriteFile(mesh, cfg.OutputFile); err != nil {
		exitWithError("failed to write output", err)
	}
	log.Info("Wrote Lanelet2 map", zap.String("output", cfg.OutputFile))

	log.Info("Validating topology")
	if issues := converter.ValidateTopology(); issues > 0 {
		log.Warn("Topology validation found inconsistent segments", zap.Int("segments", issues))
	} else {
		log.Info("Topology consistent")
	}
}
