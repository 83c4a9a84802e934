package models

import "time"

// Verdict is the outcome of a single reviewer or of the whole panel.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
	// VerdictError marks a reviewer whose call failed, timed out, or whose
	// response could not be parsed. Error reviewers are reported but excluded
	// from the vote.
	VerdictError Verdict = "ERROR"
)

// ProviderKind identifies which backend a reviewer is invoked through.
type ProviderKind string

const (
	ProviderAnthropic  ProviderKind = "anthropic"
	ProviderOpenAI     ProviderKind = "openai"
	ProviderOpenRouter ProviderKind = "openrouter"
)

// ReviewerSpec configures one panel member. The panel is built once at
// startup and shared read-only across concurrent requests.
type ReviewerSpec struct {
	Name     string        `mapstructure:"name" json:"name"`
	Provider ProviderKind  `mapstructure:"provider" json:"provider"`
	Model    string        `mapstructure:"model" json:"model"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// Issue is a single blocking finding reported by a reviewer. File and Line
// are filled in when the reviewer referenced a location; Line is nil when
// only a file (or nothing) could be recovered.
type Issue struct {
	File string `json:"file,omitempty"`
	Line *int   `json:"line,omitempty"`
	Text string `json:"text"`
}

// TokenUsage counts tokens consumed by one or more model calls.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ReviewerVerdict is the result of one reviewer's analysis. Exactly one is
// produced per configured reviewer per request, even on failure.
type ReviewerVerdict struct {
	Model   string     `json:"model"`
	Verdict Verdict    `json:"verdict"`
	Issues  []Issue    `json:"issues"`
	Notes   []string   `json:"notes"`
	Tokens  TokenUsage `json:"-"`
	Error   string     `json:"error,omitempty"`
}

// FinalVerdict is the aggregated panel decision returned to the caller.
type FinalVerdict struct {
	Verdict       Verdict           `json:"verdict"`
	VoteBreakdown string            `json:"vote_breakdown"`
	Reviewers     []ReviewerVerdict `json:"reviewers"`
	Issues        []Issue           `json:"issues"`
	TokensUsed    TokenUsage        `json:"tokens_used"`
	Developer     string            `json:"developer,omitempty"`

	// LowConfidence marks a fallback PASS issued because fewer reviewers
	// responded than quorum requires. Warning carries the explanation.
	LowConfidence bool   `json:"low_confidence,omitempty"`
	Warning       string `json:"warning,omitempty"`
}
