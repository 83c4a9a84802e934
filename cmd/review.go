package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reviewgate/reviewgate/internal/git"
	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/output"
)

var reviewFile string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Send the current git diff for review",
	Long: `Send a diff to the review service and print the panel's verdict.

By default the staged diff is used, falling back to the unstaged diff.
Use --file to review a diff from a file, or --file - to read stdin.

Exits 0 on PASS and 1 on FAIL, so it can gate commits in hooks and CI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun()
	},
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewFile, "file", "f", "", "Read the diff from a file instead of git ('-' for stdin)")
	rootCmd.AddCommand(reviewCmd)
}

func reviewRun() error {
	apiKey := viper.GetString("api_key")
	if apiKey == "" {
		return fmt.Errorf("no API key configured (set REVIEWGATE_API_KEY or api_key in config)")
	}
	serverURL := viper.GetString("server.url")
	if serverURL == "" {
		return fmt.Errorf("no server URL configured (set REVIEWGATE_SERVER_URL or server.url in config)")
	}

	diff, err := loadDiff()
	if err != nil {
		return err
	}
	if strings.TrimSpace(diff) == "" {
		ui.Warning("No changes to review (no staged or unstaged diff).")
		return nil
	}

	ui.Info("Sending diff for review...")
	ui.VerboseLog("Diff size: %d characters", len(diff))

	result, err := postReview(serverURL, apiKey, diff)
	if err != nil {
		return err
	}

	printResult(result)

	if result.Verdict != models.VerdictPass {
		return fmt.Errorf("review verdict: %s", result.Verdict)
	}
	return nil
}

// loadDiff reads the diff from --file, stdin, or git.
func loadDiff() (string, error) {
	switch reviewFile {
	case "":
		return git.NewClient().Diff(".")
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(reviewFile)
		if err != nil {
			return "", fmt.Errorf("read diff file: %w", err)
		}
		return string(data), nil
	}
}

func postReview(serverURL, apiKey, diff string) (*models.FinalVerdict, error) {
	url := strings.TrimRight(serverURL, "/") + "/api/v1/review"
	req, err := http.NewRequest("POST", url, bytes.NewBufferString(diff))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Api-Key", apiKey)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send review request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result models.FinalVerdict
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &result, nil
}

func printResult(result *models.FinalVerdict) {
	fmt.Fprintln(ui.Out)
	if result.Verdict == models.VerdictPass {
		ui.Success("%s", output.Green("PASS"))
	} else {
		ui.Error("%s", output.Red("FAIL"))
	}

	fmt.Fprintf(ui.Out, "\n%s %s\n", output.Bold("Vote:"), result.VoteBreakdown)
	if result.Warning != "" {
		ui.Warning("%s", result.Warning)
	}

	fmt.Fprintf(ui.Out, "\n%s\n", output.Bold("Per-model verdicts:"))
	for _, r := range result.Reviewers {
		fmt.Fprintf(ui.Out, "  %s %s\n", output.VerdictColor(string(r.Verdict)), r.Model)
		if r.Error != "" {
			fmt.Fprintf(ui.Out, "    %s\n", output.Dim(r.Error))
		}
	}

	if len(result.Issues) > 0 {
		fmt.Fprintf(ui.Out, "\n%s\n", output.Red(fmt.Sprintf("Issues (%d):", len(result.Issues))))
		for _, issue := range result.Issues {
			fmt.Fprintf(ui.Out, "  • %s\n", issue.Text)
		}
	}

	var hasNotes bool
	for _, r := range result.Reviewers {
		if len(r.Notes) > 0 {
			hasNotes = true
			break
		}
	}
	if hasNotes {
		fmt.Fprintf(ui.Out, "\n%s\n", output.Bold("Notes:"))
		for _, r := range result.Reviewers {
			for _, note := range r.Notes {
				fmt.Fprintf(ui.Out, "  [%s] %s\n", output.Cyan(r.Model), note)
			}
		}
	}

	fmt.Fprintf(ui.Out, "\n%s\n", output.Dim(fmt.Sprintf(
		"Tokens: %d in / %d out", result.TokensUsed.Input, result.TokensUsed.Output)))
}
