package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readrum/internal/csvio"
	"readrum/internal/extract"
	"readrum/internal/plan"
)

var diffCmd = &cobra.Command{
	Use:   "diff <baseline.csv> <revised.csv>",
	Short: "Build a replacements CSV from two extraction CSVs",
	Long: `Compare two extraction CSVs and emit explicit replacement rows.

Rows are joined by (preset, container, note). A key whose path differs
between the two files becomes one preset,container,old_path,new_path row.
Keys only present in the revised file are warned about and skipped; a
duplicate key in the baseline is a conflict and produces no row.

Typical flow:
  readrum extract kits.RPL -o paths.csv
  cp paths.csv revised.csv   # edit the path column
  readrum diff paths.csv revised.csv -o replacements.csv
  readrum apply kits.RPL -r replacements.csv`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffOutput string

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "", "Output replacements CSV (default: stdout)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	baseline, err := readRecordsFile(args[0])
	if err != nil {
		return err
	}
	revised, err := readRecordsFile(args[1])
	if err != nil {
		return err
	}

	changes, warnings, conflicts := plan.DiffRecords(baseline, revised)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if len(conflicts) > 0 {
		for _, c := range conflicts {
			fmt.Fprintf(os.Stderr, "conflict: %s\n", c)
		}
		return fmt.Errorf("%d conflicting baseline key(s), no replacements written", len(conflicts))
	}

	if len(changes) == 0 {
		fmt.Println("No differing paths found between the CSVs")
		if diffOutput == "" {
			return nil
		}
	}

	reps := make([]csvio.Replacement, 0, len(changes))
	for _, ch := range changes {
		reps = append(reps, csvio.Replacement{
			Preset:    ch.Preset,
			Container: ch.Container,
			OldPath:   ch.OldPath,
			NewPath:   ch.NewPath,
		})
	}

	out := os.Stdout
	if diffOutput != "" {
		f, err := os.Create(diffOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", diffOutput, err)
		}
		defer f.Close()
		out = f
	}
	if err := csvio.WriteReplacements(out, reps); err != nil {
		return err
	}
	if diffOutput != "" && len(reps) > 0 {
		fmt.Printf("Wrote %d replacement(s) to %s\n", len(reps), diffOutput)
	}
	return nil
}

func readRecordsFile(path string) ([]extract.PathRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	recs, err := csvio.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
