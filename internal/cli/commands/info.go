package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readrum/internal/extract"
	"readrum/internal/rpl"
)

var infoCmd = &cobra.Command{
	Use:   "info <input.RPL>",
	Short: "Show the structure of an .RPL backup",
	Long: `Show a structural summary of an .RPL backup without writing anything:
presets, outer tokens, decodable inner tokens and found sample paths.

Examples:
  readrum info kits.RPL`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	c, err := rpl.ParseWithMinLen(data, cfg.MinTokenLength)
	if err != nil {
		return err
	}

	located := extract.Walk(c, cfg.ExtractOptions())
	pathsPerPreset := make(map[string]int)
	for _, l := range located {
		pathsPerPreset[l.Record.Preset]++
	}

	fmt.Printf("Library: %s (%d preset(s), %d bytes)\n", c.Name, len(c.Presets), len(c.Raw))
	for _, p := range c.Presets {
		inner := 0
		for _, outer := range p.Outer {
			toks, err := outer.InnerTokens(c.MinTokenLen())
			if err != nil {
				continue
			}
			for _, tok := range toks {
				if _, err := tok.Decode(); err == nil {
					inner++
				}
			}
		}
		fmt.Printf("  %s: %d outer token(s), %d inner token(s), %d path(s)\n",
			p.Name, len(p.Outer), inner, pathsPerPreset[p.Name])
	}
	fmt.Printf("Total: %d path(s)\n", len(located))
	return nil
}
