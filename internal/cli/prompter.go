package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/recertify/internal/model"
)

// ReviewStats counts what the certifier did during a review session.
type ReviewStats struct {
	ByDecision map[model.Decision]int
	Duration   time.Duration
	Total      int
	Reviewed   int
	Skipped    int
}

// choiceKeys are the keys offered for each decision.
var choiceKeys = map[model.Decision]string{
	model.DecisionModify:  "m",
	model.DecisionDisable: "d",
	model.DecisionKeep:    "k",
}

const skipKey = "s"

// Prompter asks a certifier to decide on accounts awaiting review.
type Prompter struct {
	startTime   time.Time
	writer      io.Writer
	reader      *LineReader
	progressBar *progressbar.ProgressBar
	stats       ReviewStats
	statsMutex  sync.RWMutex
}

// NewPrompter creates a prompter reading from reader and writing to writer,
// defaulting to the terminal.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:    NewLineReader(reader),
		writer:    writer,
		startTime: time.Now(),
		stats:     ReviewStats{ByDecision: make(map[model.Decision]int)},
	}
}

// Review shows one account and returns the chosen decision, or DecisionNone
// when the certifier skips it.
func (p *Prompter) Review(ctx context.Context, record model.AccountRecord, options []model.Decision) (model.Decision, error) {
	if err := ctx.Err(); err != nil {
		return model.DecisionNone, err
	}

	p.updateProgress()

	if _, err := fmt.Fprintln(p.writer, RenderBox("Account Review", p.formatRecord(record))); err != nil {
		return model.DecisionNone, fmt.Errorf("failed to write account box: %w", err)
	}

	if _, err := fmt.Fprintln(p.writer, FormatPrompt("Options:")); err != nil {
		return model.DecisionNone, fmt.Errorf("failed to write options: %w", err)
	}
	valid := make(map[string]model.Decision, len(options)+1)
	for _, d := range options {
		key, ok := choiceKeys[d]
		if !ok {
			continue
		}
		valid[key] = d
		if _, err := fmt.Fprintf(p.writer, "  [%s] %s\n", strings.ToUpper(key), FormatDecision(d)); err != nil {
			return model.DecisionNone, fmt.Errorf("failed to write option: %w", err)
		}
	}
	valid[skipKey] = model.DecisionNone
	if _, err := fmt.Fprintf(p.writer, "  [%s] Skip for now\n\n", strings.ToUpper(skipKey)); err != nil {
		return model.DecisionNone, fmt.Errorf("failed to write skip option: %w", err)
	}

	decision, err := p.promptChoice(ctx, "Decision", valid)
	if err != nil {
		return model.DecisionNone, err
	}

	p.recordDecision(decision)
	return decision, nil
}

func (p *Prompter) formatRecord(rec model.AccountRecord) string {
	var b strings.Builder

	b.WriteString(BoldStyle.Render(fmt.Sprintf("%s  %s", rec.ID, rec.Name)))
	b.WriteString("\n\n")

	field := func(label, extracted, reference string) {
		if extracted == reference {
			fmt.Fprintf(&b, "  %-11s %s\n", label+":", extracted)
			return
		}
		fmt.Fprintf(&b, "  %-11s %s %s %s\n", label+":",
			WarningStyle.Render(orDash(extracted)),
			SubtleStyle.Render("(reference:"),
			SuccessStyle.Render(orDash(reference))+SubtleStyle.Render(")"))
	}
	field("Profile", rec.ExtractedProfile, rec.ReferenceProfile)
	field("Department", rec.ExtractedDepartment, rec.ReferenceDepartment)

	if rec.LastLoginDate != nil {
		fmt.Fprintf(&b, "  %-11s %s", "Last login:", rec.LastLoginDate.Format("Jan 2, 2006"))
		if rec.DaysInactive != nil {
			fmt.Fprintf(&b, " (%d days)", *rec.DaysInactive)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(InfoIcon + " Anomalies:\n")
	b.WriteString(FormatTags(rec.AnomalyTags))
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid map[string]model.Decision) (model.Decision, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return model.DecisionNone, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, ErrInputCancelled) {
				return model.DecisionNone, ctx.Err()
			}
			return model.DecisionNone, err
		}

		if d, ok := valid[strings.ToLower(input)]; ok {
			return d, nil
		}
		if d, ok := model.ParseDecision(input); ok && d != model.DecisionNone {
			if key, offered := choiceKeys[d]; offered {
				if _, ok := valid[key]; ok {
					return d, nil
				}
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

func (p *Prompter) recordDecision(d model.Decision) {
	p.statsMutex.Lock()
	defer p.statsMutex.Unlock()

	if d == model.DecisionNone {
		p.stats.Skipped++
		return
	}
	p.stats.Reviewed++
	p.stats.ByDecision[d]++
}

// Stats returns the statistics of the session so far.
func (p *Prompter) Stats() ReviewStats {
	p.statsMutex.RLock()
	defer p.statsMutex.RUnlock()

	stats := p.stats
	stats.ByDecision = make(map[model.Decision]int, len(p.stats.ByDecision))
	for k, v := range p.stats.ByDecision {
		stats.ByDecision[k] = v
	}
	stats.Duration = time.Since(p.startTime)
	return stats
}

// SetTotal sets how many accounts will be reviewed and starts the progress bar.
func (p *Prompter) SetTotal(total int) {
	p.statsMutex.Lock()
	p.stats.Total = total
	p.statsMutex.Unlock()

	p.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Reviewing accounts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func (p *Prompter) updateProgress() {
	if p.progressBar == nil {
		return
	}
	if err := p.progressBar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	if _, err := fmt.Fprintln(p.writer); err != nil {
		slog.Warn("Failed to write newline", "error", err)
	}
}

// ShowCompletion displays the review summary.
func (p *Prompter) ShowCompletion() {
	if p.progressBar != nil {
		if err := p.progressBar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	stats := p.Stats()
	summary := fmt.Sprintf("%s Review statistics:\n", ChartIcon) +
		fmt.Sprintf("  • Accounts to review: %d\n", stats.Total) +
		fmt.Sprintf("  • Decided: %d\n", stats.Reviewed) +
		fmt.Sprintf("  • Skipped: %d\n", stats.Skipped)
	for _, d := range []model.Decision{model.DecisionKeep, model.DecisionModify, model.DecisionDisable} {
		if n := stats.ByDecision[d]; n > 0 {
			summary += fmt.Sprintf("  • %s: %d\n", FormatDecision(d), n)
		}
	}
	summary += fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Second))

	if _, err := fmt.Fprintln(p.writer, RenderBox("Review Complete", summary)); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

// RenderRunSummary describes a classification run for the terminal.
func RenderRunSummary(run model.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Run %s\n\n", ChartIcon, SubtleStyle.Render(run.ID))
	fmt.Fprintf(&b, "  • Total accounts: %d\n", run.Total)
	fmt.Fprintf(&b, "  • Decided automatically: %d\n", run.Automatic)
	fmt.Fprintf(&b, "  • Awaiting review: %d\n", run.ToReview)
	for _, d := range []model.Decision{model.DecisionKeep, model.DecisionModify, model.DecisionDisable} {
		if n := run.ByDecision[d]; n > 0 {
			fmt.Fprintf(&b, "  • %s: %d\n", FormatDecision(d), n)
		}
	}

	tags := []string{
		model.TagInactive, model.TagNotInReference,
		model.TagDepartmentChange, model.TagDepartmentHarmonized,
		model.TagProfileChange, model.TagProfileHarmonized,
	}
	first := true
	for _, tag := range tags {
		n := run.ByTag[tag]
		if n == 0 {
			continue
		}
		if first {
			b.WriteString("\n" + InfoIcon + " Anomalies:\n")
			first = false
		}
		fmt.Fprintf(&b, "  • %s: %d\n", tag, n)
	}
	return strings.TrimRight(b.String(), "\n")
}
