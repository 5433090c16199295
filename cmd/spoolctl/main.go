package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cuemby/spoolctl/pkg/fees"
	"github.com/cuemby/spoolctl/pkg/journal"
	"github.com/cuemby/spoolctl/pkg/ledger"
	"github.com/cuemby/spoolctl/pkg/log"
	"github.com/cuemby/spoolctl/pkg/metrics"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/syncer"
	"github.com/cuemby/spoolctl/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const envPrefix = "SPOOLCTL"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spoolctl",
	Short: "spoolctl - declarative stake pool operations",
	Long: `spoolctl keeps an SPL stake pool in the state described by a config file.

Each command fetches the pool from the cluster, computes the operations
that bring it to the declared state, prints them, and submits them in
order. The cluster is the only state read; --journal keeps a record of
what was submitted.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		jsonOutput, _ := cmd.Flags().GetBool("log-json")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"spoolctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "settings file (default is $HOME/.config/spoolctl/config.yaml)")
	flags.StringP("url", "u", "https://api.mainnet-beta.solana.com", "RPC endpoint")
	flags.StringP("keypair", "k", "~/.config/solana/id.json", "payer keypair file, or a public key in sim-only and dump-msg modes")
	flags.String("commitment", "confirmed", "commitment level: processed, confirmed or finalized")
	flags.String("send-mode", string(types.SendModeSendActual), "send-actual, sim-only or dump-msg")
	flags.Uint64("fee-limit-cb", 1, "priority fee limit per transaction in lamports, 0 disables compute budget instructions")
	flags.String("program", "", "expected stake pool program: spl, sanctum-spl, sanctum-spl-multi or a program id")
	flags.String("journal", "", "record submitted batches in this journal file")
	flags.String("metrics-file", "", "write metrics to this file on exit, for the node exporter textfile collector")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("log-json", false, "log in JSON")

	rootCmd.AddCommand(syncDelegationCmd)
	rootCmd.AddCommand(syncPoolCmd)
	rootCmd.AddCommand(syncValidatorListCmd)
	rootCmd.AddCommand(setStakerCmd)
	rootCmd.AddCommand(increaseValidatorStakeCmd)
	rootCmd.AddCommand(decreaseValidatorStakeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
}

// initializeConfig fills flags left unset from the settings file and
// SPOOLCTL_* environment variables
func initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfgFile = filepath.Join(home, ".config", "spoolctl", "config.yaml")
		}
	}
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read settings %s: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

// bindFlags applies viper values to flags not set on the command line.
// Dashes in flag names become underscores in environment variables, e.g.
// --fee-limit-cb reads SPOOLCTL_FEE_LIMIT_CB.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if strings.Contains(f.Name, "-") {
			suffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, envPrefix+"_"+suffix); err != nil {
				bindErr = fmt.Errorf("failed to bind env to flag %s: %w", f.Name, err)
				return
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("failed to set flag %s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

// setup builds a Syncer from the global flags. The returned cleanup closes
// the journal and writes the metrics file.
func setup(cmd *cobra.Command) (*syncer.Syncer, func(), error) {
	url, _ := cmd.Flags().GetString("url")
	keypair, _ := cmd.Flags().GetString("keypair")
	commitmentFlag, _ := cmd.Flags().GetString("commitment")
	modeFlag, _ := cmd.Flags().GetString("send-mode")
	feeLimit, _ := cmd.Flags().GetUint64("fee-limit-cb")
	programFlag, _ := cmd.Flags().GetString("program")
	journalPath, _ := cmd.Flags().GetString("journal")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	mode, err := types.ParseSendMode(modeFlag)
	if err != nil {
		return nil, nil, err
	}
	commitment, err := ledger.ParseCommitment(commitmentFlag)
	if err != nil {
		return nil, nil, err
	}
	payer, err := signer.ResolveRequired(expandHome(keypair), mode)
	if err != nil {
		return nil, nil, fmt.Errorf("payer: %w", err)
	}

	var program *types.Program
	if programFlag != "" {
		p, err := types.ParseProgram(programFlag)
		if err != nil {
			return nil, nil, err
		}
		program = &p
	}

	var store journal.Store
	if journalPath != "" {
		if store, err = journal.Open(expandHome(journalPath)); err != nil {
			return nil, nil, err
		}
	}

	client := ledger.NewRPCClient(url, commitment)
	s := syncer.New(client, syncer.Config{
		Payer:     payer,
		Mode:      mode,
		Program:   program,
		Estimator: fees.NewEstimator(client, feeLimit),
		Confirm:   ledger.DefaultConfirmConfig,
		Journal:   store,
		Out:       os.Stdout,
	})

	log.Logger.Debug().
		Str("url", url).
		Str("payer", payer.PublicKey().String()).
		Str("mode", string(mode)).
		Uint64("fee_limit_cb", feeLimit).
		Msg("Configured")

	cleanup := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				log.Logger.Warn().Err(err).Msg("Failed to close journal")
			}
		}
		if metricsFile != "" {
			if err := metrics.WriteTextfile(expandHome(metricsFile)); err != nil {
				log.Logger.Warn().Err(err).Msg("Failed to write metrics")
			}
		}
	}
	return s, cleanup, nil
}

// withSyncer runs fn with a Syncer and a context cancelled on interrupt
func withSyncer(cmd *cobra.Command, fn func(ctx context.Context, s *syncer.Syncer) error) error {
	s, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, s)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
