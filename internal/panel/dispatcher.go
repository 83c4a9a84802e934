// Package panel fans one diff out to every configured reviewer concurrently
// and joins their verdicts in panel order.
package panel

import (
	"context"
	"fmt"
	"sync"

	"github.com/reviewgate/reviewgate/internal/models"
)

// Reviewer produces exactly one verdict for a diff. Implementations must not
// return errors; failures are encoded as ERROR verdicts.
type Reviewer interface {
	Review(ctx context.Context, diff string, spec models.ReviewerSpec) models.ReviewerVerdict
}

// Dispatcher launches one reviewer call per panel member.
type Dispatcher struct {
	reviewer Reviewer
}

// NewDispatcher creates a dispatcher that invokes reviewers through r.
func NewDispatcher(r Reviewer) *Dispatcher {
	return &Dispatcher{reviewer: r}
}

// Dispatch runs every reviewer in specs concurrently and returns their
// verdicts in panel order. The result always has len(specs) entries: a
// reviewer that fails, times out, or panics contributes an ERROR verdict
// rather than being dropped. Each call bounds its own duration via the
// spec's timeout, so the join here is itself bounded.
func (d *Dispatcher) Dispatch(ctx context.Context, diff string, specs []models.ReviewerSpec) []models.ReviewerVerdict {
	results := make([]models.ReviewerVerdict, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec models.ReviewerSpec) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = errorVerdict(spec, fmt.Sprintf("reviewer panicked: %v", r))
				}
			}()
			results[i] = d.reviewer.Review(ctx, diff, spec)
		}(i, spec)
	}
	wg.Wait()

	return results
}

func errorVerdict(spec models.ReviewerSpec, msg string) models.ReviewerVerdict {
	return models.ReviewerVerdict{
		Model:   spec.Name,
		Verdict: models.VerdictError,
		Issues:  []models.Issue{},
		Notes:   []string{},
		Error:   msg,
	}
}
