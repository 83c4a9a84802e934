package review

import (
	"fmt"
	"strings"

	"github.com/reviewgate/reviewgate/internal/models"
)

// Quorum is the minimum number of non-ERROR responses required to trust a
// majority decision: a majority of the full panel size.
func Quorum(panelSize int) int {
	return panelSize/2 + 1
}

// Aggregate reduces the panel's verdicts to a single decision.
//
// FAIL requires a quorum of FAIL votes counted against the full panel size,
// so a minority of confident FAILs is not diluted by errored reviewers.
// PASS requires that a quorum of reviewers actually responded. When too many
// reviewers errored to form a reliable majority, the gate fails open: the
// result is a PASS flagged as low confidence so tooling can tell it apart
// from a genuine quorum PASS.
func Aggregate(verdicts []models.ReviewerVerdict) models.FinalVerdict {
	var passCount, failCount int
	for _, v := range verdicts {
		switch v.Verdict {
		case models.VerdictPass:
			passCount++
		case models.VerdictFail:
			failCount++
		}
	}
	responded := passCount + failCount
	quorum := Quorum(len(verdicts))

	final := models.FinalVerdict{
		Reviewers:     verdicts,
		VoteBreakdown: fmt.Sprintf("PASS:%d FAIL:%d (of %d models)", passCount, failCount, len(verdicts)),
		Issues:        mergeIssues(verdicts),
		TokensUsed:    sumTokens(verdicts),
	}

	switch {
	case failCount >= quorum:
		final.Verdict = models.VerdictFail
	case responded >= quorum:
		final.Verdict = models.VerdictPass
	default:
		final.Verdict = models.VerdictPass
		final.LowConfidence = true
		final.Warning = fmt.Sprintf(
			"Only %d/%d models responded — passing with low confidence (quorum is %d)",
			responded, len(verdicts), quorum,
		)
	}

	return final
}

// mergeIssues flattens issues across reviewers in panel order, dropping
// duplicates by normalized text.
func mergeIssues(verdicts []models.ReviewerVerdict) []models.Issue {
	seen := make(map[string]bool)
	merged := []models.Issue{}
	for _, v := range verdicts {
		if v.Verdict == models.VerdictError {
			continue
		}
		for _, issue := range v.Issues {
			key := strings.ToLower(strings.TrimSpace(issue.Text))
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, issue)
		}
	}
	return merged
}

// sumTokens totals token usage across reviewers. ERROR reviewers report
// zero tokens, so they contribute nothing.
func sumTokens(verdicts []models.ReviewerVerdict) models.TokenUsage {
	var total models.TokenUsage
	for _, v := range verdicts {
		if v.Verdict == models.VerdictError {
			continue
		}
		total.Input += v.Tokens.Input
		total.Output += v.Tokens.Output
	}
	return total
}
