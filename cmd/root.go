package cmd

import (
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/odr2lanelet-go/internal/config"
	"github.com/wegman-software/odr2lanelet-go/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	configFile string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "odr2lanelet-go",
	Short: "OpenDRIVE lane graph to Lanelet2 map converter",
	Long: `odr2lanelet-go converts a road network sampled from an OpenDRIVE-style
lane graph into a Lanelet2 map.

Features:
  - Shared-boundary lanelet mesh: adjacent and connected lanes reuse
    exact border vertices instead of duplicating coincident points
  - Curvature-proportional border simplification
  - Traffic light, stop line and crosswalk conversion
  - Lua hook for custom lanelet attributes
  - Post-conversion topology validation`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.Verbose = verbose
		cfg.LogFile = logFile
		logger.Init(verbose, logFile)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")

	rootCmd.PersistentFlags().StringVarP(&cfg.InputFile, "input", "i", cfg.InputFile, "Lane-graph snapshot file (*.yaml)")
	rootCmd.PersistentFlags().Float64Var(&cfg.SamplingDistance, "sampling-distance", cfg.SamplingDistance, "Waypoint sampling step in meters")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Parallel workers for border pre-sampling")
}

// loadConfigFile overlays the optional config file, keeping explicitly set
// command-line flags in charge.
func loadConfigFile(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}

	flagged := *cfg
	if err := cfg.LoadFile(configFile); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputFile = flagged.InputFile
	}
	if flags.Changed("output") {
		cfg.OutputFile = flagged.OutputFile
	}
	if flags.Changed("sampling-distance") {
		cfg.SamplingDistance = flagged.SamplingDistance
	}
	if flags.Changed("speed-limit") {
		cfg.SpeedLimit = flagged.SpeedLimit
	}
	if flags.Changed("hook") {
		cfg.HookScript = flagged.HookScript
	}
	if flags.Changed("workers") {
		cfg.Workers = flagged.Workers
	}
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	os.Exit(1)
}
