// Package cli — plan.go implements the "swiftly-release plan" command.
//
// The plan command is a dry run: it assembles the plan the given version
// would execute and prints its step list without running anything. The
// version's parity picks the plan flavor — an even suffix previews the
// release plan, an odd suffix the dev plan.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/plan"
	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/version"
)

// NewPlanCommand creates the "plan" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <version>",
		Short: "Show the steps a release or dev run would execute",
		Long: `Print the ordered step list for the given version without executing it.

An even-suffixed version previews the release plan, an odd-suffixed version
the dev plan.

Examples:
  swiftly-release plan 1.12
  swiftly-release plan 1.13 --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(args[0])
		},
	}

	return cmd
}

// runPlan assembles and prints the plan for the given version.
func runPlan(verArg string) error {
	rc, err := loadRunContext()
	if err != nil {
		return err
	}

	ver, err := version.Parse(verArg)
	if err != nil {
		return err
	}
	kind, err := ver.Kind()
	if err != nil {
		return err
	}

	builder := rc.builder()

	var p *plan.Plan
	if kind == version.KindRelease {
		p, err = builder.ReleasePlan(ver)
	} else {
		p, err = builder.DevPlan(ver)
	}
	if err != nil {
		return err
	}

	printPlan(p)
	return nil
}

// printPlan outputs the plan's step list in text or JSON format.
func printPlan(p *plan.Plan) {
	if IsJSONOutput() {
		printPlanJSON(p)
	} else {
		printPlanText(p)
	}
}

// printPlanJSON outputs the plan as structured JSON.
func printPlanJSON(p *plan.Plan) {
	type stepJSON struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	}
	type resultJSON struct {
		Plan    string     `json:"plan"`
		Version string     `json:"version"`
		Steps   []stepJSON `json:"steps"`
	}

	result := resultJSON{
		Plan:    p.Name,
		Version: p.Version,
		Steps:   make([]stepJSON, 0, len(p.Steps)),
	}
	for _, s := range p.Steps {
		result.Steps = append(result.Steps, stepJSON{ID: s.ID, Description: s.Description})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printPlanText outputs the plan as a numbered step list.
func printPlanText(p *plan.Plan) {
	fmt.Printf("%s plan for version %s (%d steps):\n", p.Name, p.Version, len(p.Steps))
	for i, s := range p.Steps {
		fmt.Printf("  %d. %-14s %s\n", i+1, s.ID, s.Description)
	}
}
