package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/odr2lanelet-go/internal/convert"
	"github.com/wegman-software/odr2lanelet-go/internal/logger"
	"github.com/wegman-software/odr2lanelet-go/internal/odr"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a lane-graph snapshot for topology inconsistencies",
	Long: `Run the conversion in memory, without writing output, and report every
segment whose boundary points disagree with its converted predecessors or
successors. Useful to vet a snapshot before committing to a full export.`,
	Run: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	log := logger.Get()
	defer logger.Sync()

	if err := loadConfigFile(cmd); err != nil {
		exitWithError("failed to load config file", err)
	}
	if cfg.InputFile == "" {
		exitWithError("input file is required", nil)
	}

	log.Info("Loading lane-graph snapshot", zap.String("input", cfg.InputFile))
	odrMap, err := odr.LoadSnapshot(cfg.InputFile)
	if err != nil {
		exitWithError("failed to load snapshot", err)
	}

	converter := convert.New(odrMap, cfg, log, nil)
	if _, err := converter.Convert(context.Background()); err != nil {
		exitWithError("conversion failed", err)
	}

	if issues := converter.ValidateTopology(); issues > 0 {
		log.Warn("Topology validation found inconsistent segments", zap.Int("segments", issues))
	} else {
		log.Info("Topology consistent")
	}
}
