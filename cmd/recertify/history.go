package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recertify/internal/cli"
	"github.com/Veraticus/recertify/internal/model"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous classification runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), settings.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No run recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					r.ID[:min(8, len(r.ID))],
					r.Certifier,
					strconv.Itoa(r.Total),
					strconv.Itoa(r.Automatic),
					strconv.Itoa(r.ToReview),
					strconv.Itoa(r.ByDecision[model.DecisionDisable]),
				})
			}
			fmt.Fprintln(out, cli.FormatTitle("Classification runs"))
			fmt.Fprintln(out, cli.RenderTable(
				[]string{"Started", "Run", "Certifier", "Accounts", "Automatic", "To review", "Disabled"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
