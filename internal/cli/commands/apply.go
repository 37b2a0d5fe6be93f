package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"readrum/internal/common"
	"readrum/internal/csvio"
	"readrum/internal/extract"
	"readrum/internal/patch"
	"readrum/internal/plan"
	"readrum/internal/rpl"
)

var applyCmd = &cobra.Command{
	Use:   "apply <input.RPL>",
	Short: "Apply path replacements to an .RPL backup",
	Long: `Apply sample-path replacements to a ReaDrum Machine .RPL backup.

Two modes:
  explicit  (-r holds preset,container,old_path,new_path rows)
            Every inner token containing old_path gets the substitution;
            an empty preset column matches any preset.
  csv-diff  (-r holds a revised extraction: preset,container,note,path)
            The revised rows are joined against a baseline extraction by
            (preset, container, note); each changed path becomes exactly
            one edit, targeted at the token that produced the baseline
            row. The baseline comes from --baseline, or is extracted
            fresh from the input when omitted.

Before any real write the original bytes are copied to <input>.bak and the
copy is verified; the rewritten file then replaces the original. With
--dry-run the planned edits are reported and nothing is touched.

Examples:
  readrum apply kits.RPL -r replacements.csv
  readrum apply kits.RPL -r replacements.csv --dry-run
  readrum apply kits.RPL -r revised.csv --mode csv-diff --baseline paths.csv
  readrum apply kits.RPL -r replacements.csv --protect factory-paths.txt -y`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

var (
	applyReplacements string
	applyMode         string
	applyBaseline     string
	applyDryRun       bool
	applyProtect      string
	applySkipConfirm  bool
)

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVarP(&applyReplacements, "replacements", "r", "", "Replacements CSV (required)")
	applyCmd.Flags().StringVar(&applyMode, "mode", "explicit", "Planning mode: explicit or csv-diff")
	applyCmd.Flags().StringVar(&applyBaseline, "baseline", "", "Baseline extraction CSV for csv-diff mode")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Report planned edits without touching any file")
	applyCmd.Flags().StringVar(&applyProtect, "protect", "", "Gitignore-style pattern file of paths that must not be rewritten")
	applyCmd.Flags().BoolVarP(&applySkipConfirm, "yes", "y", false, "Skip confirmation prompt")
	applyCmd.MarkFlagRequired("replacements")
}

func runApply(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	c, err := rpl.ParseWithMinLen(data, cfg.MinTokenLength)
	if err != nil {
		return err
	}
	if len(c.Presets) == 0 {
		return fmt.Errorf("%w in %s", common.ErrNoPresets, inputPath)
	}

	p, err := buildPlan(c)
	if err != nil {
		return err
	}

	if applyProtect != "" {
		protected, err := plan.LoadProtectedPaths(applyProtect)
		if err != nil {
			return fmt.Errorf("failed to load protect patterns: %w", err)
		}
		p.ApplyProtection(protected)
	}

	if applyDryRun {
		printPlanReport(p)
		fmt.Println("\nDry run: no files were modified")
		return nil
	}

	if len(p.Edits) == 0 {
		printPlanReport(p)
		fmt.Println("No changes applied")
		return nil
	}

	if !applySkipConfirm {
		fmt.Printf("This will rewrite %d token(s) in %s (backup at %s%s).\n",
			len(p.Edits), inputPath, inputPath, cfg.BackupSuffix)
		fmt.Print("Continue? [y/N] ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Apply cancelled")
			return nil
		}
	}

	res, err := patch.Apply(c, p.Edits, false)
	if err != nil {
		return err
	}
	if !res.Changed {
		printPlanReport(p)
		if len(res.Failed) > 0 {
			for _, f := range res.Failed {
				fmt.Printf("  FAILED %s\n", f)
			}
			return fmt.Errorf("%d token(s) could not be patched", len(res.Failed))
		}
		fmt.Println("No changes applied")
		return nil
	}

	backupPath, err := patch.Commit(context.Background(), inputPath, res.Output, cfg.BackupSuffix)
	if err != nil {
		return err
	}

	fmt.Printf("Applied %d edit(s) to %s; original backed up to %s\n",
		len(res.Applied), inputPath, backupPath)
	for _, a := range res.Applied {
		fmt.Printf("  %s\n", a)
	}
	printSkippedAndUnmatched(p)

	if len(res.Failed) > 0 {
		for _, f := range res.Failed {
			fmt.Printf("  FAILED %s\n", f)
		}
		return fmt.Errorf("%d token(s) could not be patched", len(res.Failed))
	}
	return nil
}

// buildPlan resolves the replacements file into edits per the chosen mode.
func buildPlan(c *rpl.Container) (*plan.Plan, error) {
	f, err := os.Open(applyReplacements)
	if err != nil {
		return nil, fmt.Errorf("failed to open replacements: %w", err)
	}
	defer f.Close()

	switch applyMode {
	case "explicit":
		reps, err := csvio.ReadReplacements(f)
		if err != nil {
			return nil, err
		}
		reqs := make([]plan.Request, 0, len(reps))
		for _, rep := range reps {
			reqs = append(reqs, plan.Request{
				Preset:    plan.FilterFor(rep.Preset),
				Container: rep.Container,
				OldPath:   rep.OldPath,
				NewPath:   rep.NewPath,
			})
		}
		return plan.Explicit(c, reqs, cfg.ExtractOptions()), nil

	case "csv-diff":
		revised, err := csvio.ReadRecords(f)
		if err != nil {
			return nil, err
		}
		located := extract.Walk(c, cfg.ExtractOptions())
		baseline := extract.Records(located)
		if applyBaseline != "" {
			bf, err := os.Open(applyBaseline)
			if err != nil {
				return nil, fmt.Errorf("failed to open baseline: %w", err)
			}
			defer bf.Close()
			baseline, err = csvio.ReadRecords(bf)
			if err != nil {
				return nil, err
			}
		}
		return plan.Diff(located, baseline, revised), nil

	default:
		return nil, fmt.Errorf("unknown mode %q (want explicit or csv-diff)", applyMode)
	}
}

func printPlanReport(p *plan.Plan) {
	if len(p.Edits) > 0 {
		fmt.Printf("Planned edit(s): %d\n", len(p.Edits))
		for _, e := range p.Edits {
			fmt.Printf("  %s\n", e)
		}
	}
	printSkippedAndUnmatched(p)
}

func printSkippedAndUnmatched(p *plan.Plan) {
	for _, e := range p.Skipped {
		fmt.Printf("  protected, skipped: %s\n", e)
	}
	for _, req := range p.Unmatched {
		fmt.Printf("  unmatched: %q (%s)\n", req.OldPath, req.Preset)
	}
	for _, w := range p.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, conflict := range p.Conflicts {
		fmt.Printf("  conflict: %s\n", conflict)
	}
}
