package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cuemby/spoolctl/pkg/journal"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List the runs recorded in a journal",
	Long: `List the runs recorded in the journal given with --journal, oldest
first, or the batches of one run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("journal")
		if path == "" {
			return fmt.Errorf("--journal is required")
		}
		store, err := journal.Open(expandHome(path))
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			run, err := store.GetRun(args[0])
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		}

		runs, err := store.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}
		for _, run := range runs {
			fmt.Printf("%s  %s  %-20s %-12s %s  %d batches\n",
				run.ID, run.StartedAt.Local().Format(time.RFC3339), run.Command, run.Mode,
				status(run.Status), len(run.Batches))
		}
		return nil
	},
}

func printRun(run *journal.Run) {
	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  Command: %s\n", run.Command)
	fmt.Printf("  Pool: %s\n", run.Pool)
	fmt.Printf("  Mode: %s\n", run.Mode)
	fmt.Printf("  Status: %s\n", status(run.Status))
	if run.Error != "" {
		fmt.Printf("  Error: %s\n", run.Error)
	}
	fmt.Printf("  Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))

	for _, b := range run.Batches {
		fmt.Printf("\n  Batch %d/%d (%s) %s\n", b.Index, b.Total, b.Kind, status(b.Status))
		for _, op := range b.Operations {
			fmt.Printf("    %s\n", op)
		}
		if b.Signature != "" {
			fmt.Printf("    Signature: %s\n", b.Signature)
		}
		if b.UnitLimit > 0 {
			fmt.Printf("    Compute budget: %d units at %d micro-lamports\n", b.UnitLimit, b.UnitPrice)
		}
		if b.Error != "" {
			fmt.Printf("    Error: %s\n", b.Error)
		}
	}
}

func status(s journal.Status) string {
	switch s {
	case journal.StatusSucceeded, journal.StatusSimulated, journal.StatusDumped:
		return green(string(s))
	case journal.StatusFailed:
		return red(string(s))
	default:
		return yellow(string(s))
	}
}
