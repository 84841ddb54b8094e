// Package cli — history.go implements the "swiftly-release history" command.
//
// The history command reads the per-repository run store and presents past
// release runs: a table of recent runs by default, or the full per-step
// trail of one run with --run.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/history"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// historyFlags holds the flag values for the history command.
type historyFlags struct {
	// limit caps the number of runs listed. Zero lists everything.
	limit int

	// runID selects a single run to show in full, including step outcomes.
	runID int64
}

// NewHistoryCommand creates the "history" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewHistoryCommand() *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past release runs",
		Long: `List recorded release runs for this repository.

Each run shows its plan, version, outcome, and the failing step for halted
runs. Use --run to inspect a single run's per-step outcomes.

Examples:
  swiftly-release history
  swiftly-release history --limit 50
  swiftly-release history --run 12 --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(flags)
		},
	}

	cmd.Flags().IntVar(&flags.limit, "limit", 10, "Maximum number of runs to list (0 = all)")
	cmd.Flags().Int64Var(&flags.runID, "run", 0, "Show a single run's step-by-step detail")

	return cmd
}

// runHistory opens the run store and prints the requested view.
func runHistory(flags *historyFlags) error {
	rc, err := loadRunContext()
	if err != nil {
		return err
	}

	store, err := history.Open(rc.historyPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if flags.runID != 0 {
		rec, err := store.Run(flags.runID)
		if err != nil {
			return model.WrapCLIError(model.ExitHistoryError, "failed to load run", err)
		}
		if rec == nil {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("no run with id %d", flags.runID))
		}
		printRunDetail(rec)
		return nil
	}

	runs, err := store.Runs(flags.limit)
	if err != nil {
		return model.WrapCLIError(model.ExitHistoryError, "failed to list runs", err)
	}
	printRunList(runs)
	return nil
}

// printRunList outputs the run listing in text or JSON format.
func printRunList(runs []model.RunRecord) {
	if IsJSONOutput() {
		type resultJSON struct {
			Runs []model.RunRecord `json:"runs"`
		}
		// Use an empty slice instead of nil to ensure JSON output shows []
		// instead of null when no runs are recorded.
		result := resultJSON{Runs: make([]model.RunRecord, 0, len(runs))}
		result.Runs = append(result.Runs, runs...)
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(runs) == 0 {
		fmt.Println("No release runs recorded.")
		return
	}

	// Print header row.
	fmt.Printf("%-6s %-8s %-10s %-12s %-20s %s\n",
		"RUN", "PLAN", "VERSION", "STATUS", "STARTED", "FAILED STEP")

	for _, r := range runs {
		failed := "-"
		if r.FailedStep != "" {
			failed = r.FailedStep
		}
		fmt.Printf("%-6d %-8s %-10s %-12s %-20s %s\n",
			r.ID,
			r.Plan,
			r.Version,
			r.Status.String(),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			failed,
		)
	}
}

// printRunDetail outputs one run with its step trail.
func printRunDetail(rec *model.RunRecord) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(rec, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Run #%d: %s %s (%s)\n", rec.ID, rec.Plan, rec.Version, rec.Status)
	fmt.Printf("  Started:  %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !rec.FinishedAt.IsZero() {
		fmt.Printf("  Finished: %s\n", rec.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if rec.FailedStep != "" {
		fmt.Printf("  Failed at: %s\n", rec.FailedStep)
	}

	if len(rec.Steps) > 0 {
		fmt.Println()
		fmt.Println("  Steps:")
		for _, s := range rec.Steps {
			line := fmt.Sprintf("    %d. %-14s %s", s.Position+1, s.StepID, s.Status)
			if s.Error != "" {
				line += fmt.Sprintf("  (%s)", s.Error)
			}
			fmt.Println(line)
		}
	}
}
