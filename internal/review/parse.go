package review

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reviewgate/reviewgate/internal/models"
)

// Model output is an untrusted channel. The verdict grammar is strict: the
// response must contain a literal "VERDICT: PASS" or "VERDICT: FAIL" line.
// Anything else is reported as unparseable rather than guessed.
var verdictRe = regexp.MustCompile(`(?i)VERDICT:\s*(PASS|FAIL)`)

// sectionHeaderRe matches a bare section header line such as "ISSUES:",
// in any case.
var sectionHeaderRe = regexp.MustCompile(`(?i)^([A-Z]+):\s*$`)

// issueLocationRe pulls a leading file:line reference out of an issue bullet.
var issueLocationRe = regexp.MustCompile("^`?([\\w./-]+\\.\\w+):(\\d+)`?")

// parseVerdict extracts PASS or FAIL from a model response. The second
// return is false when no unambiguous verdict is present.
func parseVerdict(text string) (models.Verdict, bool) {
	m := verdictRe.FindStringSubmatch(text)
	if m == nil {
		return models.VerdictError, false
	}
	return models.Verdict(strings.ToUpper(m[1])), true
}

// parseSection extracts the bullet items under a named section header. The
// section runs until the next header line or end of input.
func parseSection(text, name string) []string {
	var items []string
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := sectionHeaderRe.FindStringSubmatch(trimmed); m != nil {
			inSection = strings.EqualFold(m[1], name)
			continue
		}
		if !inSection {
			continue
		}
		if strings.HasPrefix(trimmed, "- ") {
			if item := strings.TrimSpace(trimmed[2:]); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// parseIssues converts issue bullets into structured issues, mining each
// bullet for a leading file:line location when the reviewer supplied one.
func parseIssues(text string) []models.Issue {
	bullets := parseSection(text, "ISSUES")
	issues := make([]models.Issue, 0, len(bullets))
	for _, b := range bullets {
		issue := models.Issue{Text: b}
		if m := issueLocationRe.FindStringSubmatch(b); m != nil {
			issue.File = m[1]
			if n, err := strconv.Atoi(m[2]); err == nil {
				issue.Line = &n
			}
		}
		issues = append(issues, issue)
	}
	return issues
}
