package cli

import (
	"fmt"
	"io"

	"github.com/cohdi/cdimock/pkg/cli/internal/output"
	"github.com/cohdi/cdimock/pkg/config"
	"github.com/cohdi/cdimock/pkg/fixture"
	"github.com/spf13/cobra"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Inspect response fixtures",
}

var fixturesCheckCmd = &cobra.Command{
	Use:   "check [fixture-root]",
	Short: "Validate fixture JSON and summarise PATCH response pools",
	Long: `Parse every *.json file below the fixture root and report files that are
not valid JSON. For each machine with a PATCH response pool, show how many
responses are still pending and how many have been handed out.

Exits with an error when any fixture is malformed.`,
	Example: `  cdimock fixtures check
  cdimock fixtures check ./testdata/in --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := config.DefaultFixtureRoot
		if len(args) == 1 {
			root = args[0]
		}
		return runFixturesCheck(cmd.OutOrStdout(), root, jsonOutput)
	},
}

func runFixturesCheck(w io.Writer, root string, asJSON bool) error {
	report, err := fixture.Scan(root)
	if err != nil {
		return err
	}

	if asJSON {
		if err := output.JSON(w, report); err != nil {
			return err
		}
	} else {
		printFixtureReport(w, report)
	}

	if !report.OK() {
		return fmt.Errorf("%d malformed fixture(s) in %s", len(report.Malformed), root)
	}
	return nil
}

func printFixtureReport(w io.Writer, report *fixture.Report) {
	fmt.Fprintf(w, "Fixture root: %s\n", report.Root)
	fmt.Fprintf(w, "Fixtures:     %d\n", report.Fixtures)
	if report.Fixtures == 0 {
		output.Warn(w, "no *.json fixtures under %s; every fixture route will answer 404", report.Root)
	}

	if len(report.Pools) > 0 {
		fmt.Fprintln(w)
		tw := output.Table(w)
		fmt.Fprintln(tw, "MACHINE\tPENDING\tALLOCATED")
		for _, p := range report.Pools {
			fmt.Fprintf(tw, "%s\t%d\t%d\n", p.Machine, p.Pending, p.Allocated)
		}
		_ = tw.Flush()
	}

	if len(report.Malformed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Malformed:")
		for _, p := range report.Malformed {
			fmt.Fprintf(w, "  %s: %s\n", p.Path, p.Err)
		}
	}
}

func init() {
	fixturesCmd.AddCommand(fixturesCheckCmd)
	rootCmd.AddCommand(fixturesCmd)
}
