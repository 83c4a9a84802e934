package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/panel"
	"github.com/reviewgate/reviewgate/internal/provider"
)

// DefaultMaxDiffChars caps the diff size sent to reviewers. Oversize diffs
// are truncated, never rejected.
const DefaultMaxDiffChars = 50000

// dispatcher is the fan-out seam, satisfied by panel.Dispatcher in
// production and by fakes in tests.
type dispatcher interface {
	Dispatch(ctx context.Context, diff string, specs []models.ReviewerSpec) []models.ReviewerVerdict
}

// Engine runs the full review pipeline: truncate, fan out to the panel,
// aggregate to a final verdict.
type Engine struct {
	panel        []models.ReviewerSpec
	dispatcher   dispatcher
	maxDiffChars int
}

// NewEngine builds an engine for a fixed panel backed by the given provider
// factory. maxDiffChars <= 0 selects the default cap.
func NewEngine(specs []models.ReviewerSpec, factory provider.Factory, maxDiffChars int) *Engine {
	if maxDiffChars <= 0 {
		maxDiffChars = DefaultMaxDiffChars
	}
	return &Engine{
		panel:        specs,
		dispatcher:   panel.NewDispatcher(NewClient(factory)),
		maxDiffChars: maxDiffChars,
	}
}

// Panel returns the configured reviewer specs.
func (e *Engine) Panel() []models.ReviewerSpec {
	return e.panel
}

// Review runs the panel against a diff and returns the aggregated verdict.
// The caller identity is recorded on the result; authorization happens
// before Review is called.
func (e *Engine) Review(ctx context.Context, diff, developer string) *models.FinalVerdict {
	start := time.Now()

	diff = Truncate(diff, e.maxDiffChars)
	verdicts := e.dispatcher.Dispatch(ctx, diff, e.panel)
	final := Aggregate(verdicts)
	final.Developer = developer

	slog.Info("review complete",
		"developer", developer,
		"verdict", final.Verdict,
		"breakdown", final.VoteBreakdown,
		"tokens_in", final.TokensUsed.Input,
		"tokens_out", final.TokensUsed.Output,
		"elapsed", time.Since(start).Round(100*time.Millisecond),
	)

	return &final
}

// Truncate caps the diff at max characters, appending a marker noting how
// much was omitted.
func Truncate(diff string, max int) string {
	if len(diff) <= max {
		return diff
	}
	omitted := len(diff) - max
	return diff[:max] + fmt.Sprintf("\n\n... (truncated, %d chars omitted)", omitted)
}
