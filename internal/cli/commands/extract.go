package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readrum/internal/catalog"
	"readrum/internal/csvio"
	"readrum/internal/extract"
	"readrum/internal/rpl"
)

var extractCmd = &cobra.Command{
	Use:   "extract <input.RPL>",
	Short: "Extract sample paths from an .RPL backup to CSV",
	Long: `Extract sample paths from a ReaDrum Machine .RPL backup.

Decodes the base64 blobs in every PRESET block, finds the nested base64
tokens holding path-bearing payloads, and writes one CSV row per found
path with columns: preset,container,note,path.

Detection is heuristic (rooted paths ending in a known audio extension);
review the output before feeding it back into 'apply'.

Examples:
  # Extract to stdout
  readrum extract kits.RPL

  # Extract to a file
  readrum extract kits.RPL -o paths.csv

  # Record the run in a catalog for later diffing
  readrum extract kits.RPL -o paths.csv --catalog runs.db --tag before-move`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

var (
	extractOutput  string
	extractCatalog string
	extractTag     string
)

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output CSV path (default: stdout)")
	extractCmd.Flags().StringVar(&extractCatalog, "catalog", "", "Record this extraction as a run in a catalog database")
	extractCmd.Flags().StringVar(&extractTag, "tag", "", "Tag for the recorded run (requires --catalog)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	c, err := rpl.ParseWithMinLen(data, cfg.MinTokenLength)
	if err != nil {
		return err
	}

	recs := extract.Records(extract.Walk(c, cfg.ExtractOptions()))

	out := os.Stdout
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", extractOutput, err)
		}
		defer f.Close()
		out = f
	}
	if err := csvio.WriteRecords(out, recs); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if extractOutput != "" {
		fmt.Printf("Wrote %d row(s) to %s (%d preset(s))\n", len(recs), extractOutput, len(c.Presets))
	}

	if extractCatalog != "" {
		cat, err := catalog.Open(extractCatalog)
		if err != nil {
			return err
		}
		defer cat.Close()
		runID, err := cat.SaveRun(context.Background(), inputPath, extractTag, recs)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		fmt.Printf("Recorded run %d in %s\n", runID, extractCatalog)
	}
	return nil
}
