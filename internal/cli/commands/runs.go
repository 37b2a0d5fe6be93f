package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"readrum/internal/catalog"
	"readrum/internal/csvio"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or export recorded extraction runs",
	Long: `List extraction runs recorded with 'extract --catalog', or export one
run back to CSV.

A run reference is a numeric ID or a tag; a tag resolves to the newest
run carrying it.

Examples:
  # List runs
  readrum runs -d runs.db

  # Export a run to CSV
  readrum runs -d runs.db --show before-move -o baseline.csv`,
	RunE: runRuns,
}

var (
	runsCatalog string
	runsShow    string
	runsOutput  string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVarP(&runsCatalog, "catalog", "d", "", "Catalog database path (required)")
	runsCmd.Flags().StringVar(&runsShow, "show", "", "Export the records of one run (ID or tag)")
	runsCmd.Flags().StringVarP(&runsOutput, "output", "o", "", "Output CSV path for --show (default: stdout)")
	runsCmd.MarkFlagRequired("catalog")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Open(runsCatalog)
	if err != nil {
		return err
	}
	defer cat.Close()
	ctx := context.Background()

	if runsShow != "" {
		run, err := cat.FindRun(ctx, runsShow)
		if err != nil {
			return err
		}
		recs, err := cat.LoadRun(ctx, run.ID)
		if err != nil {
			return err
		}
		out := os.Stdout
		if runsOutput != "" {
			f, err := os.Create(runsOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", runsOutput, err)
			}
			defer f.Close()
			out = f
		}
		if err := csvio.WriteRecords(out, recs); err != nil {
			return err
		}
		if runsOutput != "" {
			fmt.Printf("Wrote %d row(s) from run %d to %s\n", len(recs), run.ID, runsOutput)
		}
		return nil
	}

	runs, err := cat.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run %d", r.ID)
		if r.Tag != "" {
			fmt.Printf(" (tag: %s)", r.Tag)
		}
		fmt.Println()
		fmt.Printf("Date:    %s\n", time.Unix(r.CreatedAt, 0).Format("Mon Jan 2 15:04:05 2006"))
		fmt.Printf("Source:  %s\n", r.Source)
		fmt.Printf("Records: %d\n\n", r.RecordCount)
	}
	return nil
}
