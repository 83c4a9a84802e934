package review

import (
	"context"
	"fmt"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/provider"
)

const (
	reviewMaxTokens   = 4096
	reviewTemperature = 0.3
)

// Client runs a single reviewer against a diff. Review never returns an
// error: any provider, timeout, or parse failure is captured as an ERROR
// verdict so one broken reviewer can never abort the request.
type Client struct {
	factory provider.Factory
}

// NewClient creates a reviewer client using the given provider factory.
func NewClient(factory provider.Factory) *Client {
	return &Client{factory: factory}
}

// Review sends the diff to one panel member and parses its response.
func (c *Client) Review(ctx context.Context, diff string, spec models.ReviewerSpec) models.ReviewerVerdict {
	v := models.ReviewerVerdict{
		Model:   spec.Name,
		Verdict: models.VerdictError,
		Issues:  []models.Issue{},
		Notes:   []string{},
	}

	p, err := c.factory(spec)
	if err != nil {
		v.Error = fmt.Sprintf("provider setup failed: %v", err)
		return v
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	resp, err := p.Invoke(ctx, provider.Request{
		System:      systemPrompt,
		Prompt:      buildReviewPrompt(diff),
		MaxTokens:   reviewMaxTokens,
		Temperature: reviewTemperature,
	})
	if err != nil {
		v.Error = fmt.Sprintf("model call failed: %v", err)
		return v
	}

	verdict, ok := parseVerdict(resp.Text)
	if !ok {
		v.Error = "no VERDICT line in model response"
		return v
	}

	v.Verdict = verdict
	v.Issues = parseIssues(resp.Text)
	v.Notes = parseSection(resp.Text, "NOTES")
	v.Tokens = resp.Tokens
	return v
}
