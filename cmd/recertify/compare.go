package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recertify/internal/cli"
)

func normalizeCmd() *cobra.Command {
	var removeStopWords bool

	cmd := &cobra.Command{
		Use:   "normalize <label>...",
		Short: "Print labels the way they are compared",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			n, semantic, _, err := newComparison(settings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, label := range args {
				concepts := slices.Sorted(maps.Keys(semantic.ExtractKeyConcepts(label)))
				fmt.Fprintf(out, "%q → %q %s\n", label, n.Normalize(label, removeStopWords),
					cli.SubtleStyle.Render("concepts: "+strings.Join(concepts, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&removeStopWords, "stop-words", false, "also remove stop words")
	return cmd
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two labels without consulting the whitelist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			_, semantic, scorer, err := newComparison(settings)
			if err != nil {
				return err
			}

			cmp := scorer.Compare(args[0], args[1])
			similar := cli.ErrorStyle.Render("no")
			if cmp.Similar() {
				similar = cli.SuccessStyle.Render("yes")
			}
			change := cli.SuccessStyle.Render("no")
			if semantic.IsSemanticChange(args[0], args[1]) {
				change = cli.WarningStyle.Render("yes")
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"ratio %.1f  tier %s  similar %s  semantic change %s\n",
				cmp.Ratio, cmp.Tier, similar, change)
			return nil
		},
	}
}
