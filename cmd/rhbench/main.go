package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homier/rhmap/internal/bench"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		configPath string
		cfg        = bench.DefaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "rhbench <key-file>",
		Short: "Time every insert, lookup and delete of a key list",
		Long: "Load a newline separated key list into the map, then look up and delete every key, " +
			"writing per-operation timings and load factors as CSV files.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				fileCfg, err := bench.LoadConfig(configPath)
				if err != nil {
					return err
				}

				mergeFlags(cmd, &fileCfg, cfg)
				cfg = fileCfg
			}

			if len(args) == 1 {
				cfg.KeyFile = args[0]
			}

			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			res, err := bench.Run(cfg, logger)
			if err != nil {
				logger.Error("benchmark failed", zap.Error(err))
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Sum)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "TOML config file, flags take precedence")
	flags.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "directory the CSV reports are written to")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed of the generated values")
	flags.IntVar(&cfg.MaxKeySize, "max-key-size", cfg.MaxKeySize, "longest key line, terminator included")
	flags.BoolVar(&cfg.CopyKeys, "copy-keys", cfg.CopyKeys, "let the map copy every key")
	flags.StringVar(&cfg.Hash, "hash", cfg.Hash, "hash function: xxhash or xxh3")
	flags.Uint64Var(&cfg.MemoryLimit, "memory-limit", cfg.MemoryLimit, "bytes the map may allocate, 0 for no limit")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	flags.BoolVar(&cfg.Log.Development, "log-dev", cfg.Log.Development, "human friendly log output")

	return cmd
}

// mergeFlags copies explicitly set flags from flagCfg over the file config.
func mergeFlags(cmd *cobra.Command, fileCfg *bench.Config, flagCfg bench.Config) {
	changed := cmd.Flags().Changed

	if changed("output-dir") {
		fileCfg.OutputDir = flagCfg.OutputDir
	}
	if changed("seed") {
		fileCfg.Seed = flagCfg.Seed
	}
	if changed("max-key-size") {
		fileCfg.MaxKeySize = flagCfg.MaxKeySize
	}
	if changed("copy-keys") {
		fileCfg.CopyKeys = flagCfg.CopyKeys
	}
	if changed("hash") {
		fileCfg.Hash = flagCfg.Hash
	}
	if changed("memory-limit") {
		fileCfg.MemoryLimit = flagCfg.MemoryLimit
	}
	if changed("log-level") {
		fileCfg.Log.Level = flagCfg.Log.Level
	}
	if changed("log-dev") {
		fileCfg.Log.Development = flagCfg.Log.Development
	}
}
