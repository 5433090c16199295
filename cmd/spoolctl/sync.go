package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/cuemby/spoolctl/pkg/config"
	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/signer"
	"github.com/cuemby/spoolctl/pkg/syncer"
)

var syncDelegationCmd = &cobra.Command{
	Use:   "sync-delegation <delegation-config>",
	Short: "(Staker) move stake until each validator holds its target",
	Long: `Move stake between the reserve and the validators of a pool until each
holds the stake declared in the delegation config.

Targets are a lamport amount or "remainder". The reserve serves increases
in the order validators are declared; the remainder validator is served
last and gets whatever is left.

Examples:
  # Preview the stake changes
  spoolctl sync-delegation --send-mode sim-only delegation.toml

  # Print unsigned transactions for a multisig staker
  spoolctl sync-delegation --send-mode dump-msg delegation.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f config.DelegationFile
		if err := config.Load(args[0], &f); err != nil {
			return err
		}
		// reject a bad scheme before connecting
		if _, err := config.ValidateDelegation(&f.Pool); err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			if err := s.SyncDelegation(ctx, &f.Pool); err != nil {
				return err
			}
			done("Delegation synced")
			return nil
		})
	},
}

var syncPoolCmd = &cobra.Command{
	Use:   "sync-pool <pool-config>",
	Short: "(Manager) sync fees, authorities, staker and manager",
	Long: `Bring the fees, funding authorities, manager fee account, staker and
manager of a pool to the values of a pool config.

Keys left out of the config keep their current value, except the funding
authorities, which are cleared. The current manager signs, as old-manager
or the payer; a manager change is applied last.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadPool(args[0])
		if err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			if err := s.SyncPool(ctx, c); err != nil {
				return err
			}
			done("Pool synced")
			return nil
		})
	},
}

var syncValidatorListCmd = &cobra.Command{
	Use:   "sync-validator-list <pool-config>",
	Short: "(Staker) sync validators and preferred validators",
	Long: `Add and remove validators until the pool holds exactly the validators
of a pool config, then set the preferred deposit and withdraw validators.

The pool is updated for the current epoch first if it needs it. Stake
left on a removed validator is decreased in the same transaction as its
removal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadPool(args[0])
		if err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			if err := s.SyncValidatorList(ctx, c); err != nil {
				return err
			}
			done("Validator list synced")
			return nil
		})
	},
}

var setStakerCmd = &cobra.Command{
	Use:   "set-staker <pool-config>",
	Short: "(Staker or manager) hand the staker role to the staker of a pool config",
	Long: `Set the staker of a pool to the staker of a pool config, or to the payer
when the config names none. old-staker signs, or the payer when it is
left out; the manager may sign instead of the current staker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadPool(args[0])
		if err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			if err := s.SetStaker(ctx, c); err != nil {
				return err
			}
			done("Staker set")
			return nil
		})
	},
}

var increaseValidatorStakeCmd = &cobra.Command{
	Use:   "increase-validator-stake <pool-config> <validator> <amount>",
	Short: "(Staker) move stake from the reserve to one validator",
	Long: `Increase the stake delegated to one validator of a pool by an amount of
SOL, or by everything the reserve can spare with "all".

Examples:
  spoolctl increase-validator-stake pool.toml <vote-account> 1.5
  spoolctl increase-validator-stake --send-mode sim-only pool.toml <vote-account> all`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adjustStake(cmd, args, "Stake increased", (*syncer.Syncer).IncreaseValidatorStake)
	},
}

var decreaseValidatorStakeCmd = &cobra.Command{
	Use:   "decrease-validator-stake <pool-config> <validator> <amount>",
	Short: "(Staker) move stake from one validator back to the reserve",
	Long: `Decrease the stake delegated to one validator of a pool by an amount of
SOL, or down to the minimum with "all".`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adjustStake(cmd, args, "Stake decreased", (*syncer.Syncer).DecreaseValidatorStake)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <pool>",
	Short: "Update validator and pool balances for the current epoch",
	Long: `Run the update crank of a pool: refresh the balances of validator list
entries not yet updated this epoch, then the pool totals, then clean up
removed entries. Anyone can update a pool.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modeFlag, _ := cmd.Flags().GetString("mode")
		mode, err := reconciler.ParseUpdateMode(modeFlag)
		if err != nil {
			return err
		}
		address, err := signer.ParsePubkey(args[0])
		if err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			if err := s.Update(ctx, address, mode); err != nil {
				return err
			}
			done("Pool updated")
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list <pool>",
	Short: "Print the current state of a pool as a pool config",
	Long: `Print the current state of a pool as a pool config, with derived
addresses filled in. The output can be edited and fed back to sync-pool
and sync-validator-list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		address, err := signer.ParsePubkey(args[0])
		if err != nil {
			return err
		}
		return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
			return s.List(ctx, address, os.Stdout, format)
		})
	},
}

func init() {
	updateCmd.Flags().String("mode", "if-needed", "if-needed, force-pool or force-all")
	listCmd.Flags().StringP("format", "o", "toml", "toml, yaml or text")
}

func loadPool(path string) (*config.PoolConfig, error) {
	var f config.PoolFile
	if err := config.Load(path, &f); err != nil {
		return nil, err
	}
	return &f.Pool, nil
}

type adjustFunc func(*syncer.Syncer, context.Context, *config.PoolConfig, solana.PublicKey, reconciler.StakeAmount) error

func adjustStake(cmd *cobra.Command, args []string, msg string, fn adjustFunc) error {
	c, err := loadPool(args[0])
	if err != nil {
		return err
	}
	vote, err := signer.ParsePubkey(args[1])
	if err != nil {
		return err
	}
	amount, err := reconciler.ParseStakeAmount(args[2])
	if err != nil {
		return err
	}
	return withSyncer(cmd, func(ctx context.Context, s *syncer.Syncer) error {
		if err := fn(s, ctx, c, vote, amount); err != nil {
			return err
		}
		done(msg)
		return nil
	})
}

func done(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", green("✓"), msg)
}
