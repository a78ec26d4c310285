package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/recertify/internal/cli"
	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/model"
	"github.com/Veraticus/recertify/internal/similarity"
)

func whitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage validated label pairs",
		Long: `View and maintain the whitelist of validated profile and department pairs.

A variation is a spelling difference that denotes the same label; a change is
a different label a certifier has accepted for the account.`,
	}

	cmd.AddCommand(whitelistListCmd())
	cmd.AddCommand(whitelistAddCmd())
	cmd.AddCommand(whitelistClassifyCmd())

	return cmd
}

func closeServices(svc *services) {
	if err := svc.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}

func parseCategoryArg(s string) (model.Category, error) {
	c, err := model.ParseCategory(s)
	if err != nil {
		return "", common.NewUserError(fmt.Sprintf("unknown category %q (profile or department)", s), err)
	}
	return c, nil
}

func parseKindArg(s string) (model.Kind, error) {
	k, err := model.ParseKind(s)
	if err != nil {
		return "", common.NewUserError(fmt.Sprintf("unknown kind %q (variation or change)", s), err)
	}
	return k, nil
}

func whitelistListCmd() *cobra.Command {
	var category, kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List whitelisted pairs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeServices(svc)

			categories := model.Categories
			if category != "" {
				c, err := parseCategoryArg(category)
				if err != nil {
					return err
				}
				categories = []model.Category{c}
			}
			var kindFilter model.Kind
			if kind != "" {
				k, err := parseKindArg(kind)
				if err != nil {
					return err
				}
				kindFilter = k
			}

			var rows [][]string
			for _, c := range categories {
				for _, e := range svc.whitelist.Entries(c) {
					if kindFilter != "" && e.Kind != kindFilter {
						continue
					}
					validated := ""
					if !e.ValidatedOn.IsZero() {
						validated = e.ValidatedOn.Format("2006-01-02")
					}
					rows = append(rows, []string{string(c), string(e.Kind), e.ExtractedValue, e.ReferenceValue, e.Certifier, validated})
				}
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("The whitelist is empty"))
				return nil
			}
			fmt.Fprintln(out, cli.RenderTable(
				[]string{"Category", "Kind", "Extracted", "Reference", "Certifier", "Validated"}, rows))
			fmt.Fprintln(out, cli.SubtleStyle.Render(strconv.Itoa(len(rows))+" pair(s)"))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list one category (profile, department)")
	cmd.Flags().StringVar(&kind, "kind", "", "only list one kind (variation, change)")
	return cmd
}

func whitelistAddCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "add <category> <extracted> <reference>",
		Short: "Validate a label pair by hand",
		Example: `  recertify whitelist add profile "Dev. senior" "Développeur senior"
  recertify whitelist add department "DSI" "Ressources humaines" --kind change`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			k, err := parseKindArg(kind)
			if err != nil {
				return err
			}

			svc, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeServices(svc)

			added, err := svc.whitelist.Append(cmd.Context(), model.WhitelistEntry{
				Category:       category,
				Kind:           k,
				ExtractedValue: args[1],
				ReferenceValue: args[2],
				Certifier:      svc.settings.Certifier,
				ValidatedOn:    time.Now(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !added {
				fmt.Fprintln(out, cli.FormatInfo("Pair already whitelisted"))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Whitelisted %s %s: %q → %q", category, k, args[1], args[2])))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.KindVariation), "variation or change")
	return cmd
}

func whitelistClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <category> <extracted> <reference>",
		Short: "Show how a label pair would be treated",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}

			svc, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeServices(svc)

			extracted, reference := args[1], args[2]
			cmp := svc.scorer.Compare(extracted, reference)

			var verdict string
			switch svc.whitelist.Classify(category, extracted, reference) {
			case model.VerdictVariation:
				verdict = cli.SuccessStyle.Render("known variation")
			case model.VerdictChange:
				verdict = cli.SuccessStyle.Render("known change")
			default:
				switch {
				case cmp.Equivalent():
					verdict = cli.SuccessStyle.Render("same label")
				case svc.semantic.IsSemanticChange(extracted, reference) || cmp.Tier == similarity.TierGrayChange:
					verdict = cli.WarningStyle.Render("probable change, needs review")
				default:
					verdict = cli.InfoStyle.Render("probable variation, harmonized automatically")
				}
			}

			content := fmt.Sprintf("  Normalized: %q → %q\n", cmp.NormalizedA, cmp.NormalizedB) +
				fmt.Sprintf("  Ratio:      %.1f (threshold %.0f)\n", cmp.Ratio, svc.scorer.Threshold()) +
				fmt.Sprintf("  Tier:       %s\n", cmp.Tier) +
				fmt.Sprintf("  Verdict:    %s", verdict)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(fmt.Sprintf("%s pair", category), content))
			return nil
		},
	}
}
