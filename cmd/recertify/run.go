package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/recertify/internal/cli"
	"github.com/Veraticus/recertify/internal/common"
	"github.com/Veraticus/recertify/internal/config"
	"github.com/Veraticus/recertify/internal/engine"
	"github.com/Veraticus/recertify/internal/ingest"
	"github.com/Veraticus/recertify/internal/report"
)

func runCmd() *cobra.Command {
	var (
		extractionFile string
		referenceFiles []string
		outputFile     string
		format         string
		noReview       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify an extraction against the HR reference",
		Long: `Load the application extraction and the HR reference, tag every account
discrepancy, decide what can be decided automatically, ask the certifier about
the rest, and write the certification report.

Spelling variations of a profile or department are validated automatically and
remembered; genuine changes are remembered once a certifier keeps or modifies
the account.`,
		Example: `  recertify run -e extraction.csv -r hr_staff.csv -r hr_contractors.csv -o report.csv
  recertify run -e extraction.csv -r hr.csv --no-review --threshold 90`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if extractionFile == "" || len(referenceFiles) == 0 {
				return common.NewUserError("both --extraction and --reference are required", common.ErrMissingConfig)
			}

			svc, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					slog.Warn("Failed to close storage", "error", err)
				}
			}()
			settings := svc.settings

			loader := ingest.NewLoader(nil)
			records, _, err := loader.Load(extractionFile, referenceFiles)
			if err != nil {
				return fmt.Errorf("failed to load input: %w", err)
			}
			if len(records) == 0 {
				return common.NewUserError("the extraction contains no active account", common.ErrNoRecords)
			}

			eng := engine.New(svc.scorer, svc.semantic, svc.whitelist, engine.Config{
				InactivityDays: settings.Thresholds.InactivityDays,
				Certifier:      settings.Certifier,
			}).WithRunRecorder(svc.db)

			result, classifyErr := eng.ClassifyBatch(ctx, records)
			if classifyErr != nil {
				slog.Warn("Some whitelist entries could not be saved", "error", classifyErr)
			}
			// without -o the report itself is written to stdout, so the summary
			// and the review prompts use stderr to keep it parseable
			out := cmd.OutOrStdout()
			if outputFile == "" {
				out = cmd.ErrOrStderr()
			}
			fmt.Fprintln(out, cli.RenderBox("Classification", cli.RenderRunSummary(result.Run)))

			var reviewErr error
			if pending := result.Pending(); len(pending) > 0 && !noReview {
				handler := cli.NewInterruptHandler(out)
				reviewCtx, stop := handler.HandleInterrupts(ctx)

				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				prompter.SetTotal(len(pending))
				_, reviewErr = eng.ReviewPending(reviewCtx, result, prompter, settings.Certifier)
				stop()
				prompter.ShowCompletion()

				if handler.WasInterrupted() || errors.Is(reviewErr, cli.ErrInputClosed) {
					slog.Warn("Review stopped before every account was decided")
					reviewErr = nil
				}
			}

			if n := result.Run.ToReview; n > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d account(s) with anomalies have no decision", n)))
			}

			if err := writeReport(cmd.OutOrStdout(), outputFile, format, result, settings); err != nil {
				return err
			}
			if outputFile != "" {
				fmt.Fprintln(out, cli.FormatSuccess("Report written to "+outputFile))
			}

			return errors.Join(classifyErr, reviewErr)
		},
	}

	cmd.Flags().StringVarP(&extractionFile, "extraction", "e", "", "application extraction CSV file")
	cmd.Flags().StringSliceVarP(&referenceFiles, "reference", "r", nil, "HR reference CSV file (repeatable)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "report format: csv, json, yaml (default: from the output extension)")
	cmd.Flags().BoolVar(&noReview, "no-review", false, "do not prompt for accounts awaiting review")
	cmd.Flags().Float64("threshold", config.DefaultSimilarityThreshold, "similarity threshold of the gray zone (0-100)")
	cmd.Flags().Int("inactivity-days", config.DefaultInactivityDays, "days without login before an account is considered inactive")

	_ = viper.BindPFlag("thresholds.similarity", cmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("thresholds.inactivity_days", cmd.Flags().Lookup("inactivity-days"))

	return cmd
}

func writeReport(stdout io.Writer, path, format string, result *engine.Result, settings *config.Settings) error {
	opts := report.Options{
		Certifier:   settings.Certifier,
		CertifiedOn: time.Now(),
		Format:      report.FormatForPath(path),
	}
	if format != "" {
		f, err := report.ParseFormat(format)
		if err != nil {
			return common.NewUserError(err.Error(), err)
		}
		opts.Format = f
	}

	if path == "" {
		return report.Write(stdout, result.Records, opts)
	}

	f, err := os.Create(config.ExpandPath(path)) //nolint:gosec // user-provided output file
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := report.Write(f, result.Records, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
