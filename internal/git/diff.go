// Package git shells out to the git CLI to collect the diff under review.
package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Client defines the git operations the review client needs.
type Client interface {
	// Diff returns the staged diff, falling back to the unstaged diff when
	// nothing is staged. An empty string means there is nothing to review.
	Diff(path string) (string, error)
}

// RealClient implements Client using real git commands.
type RealClient struct{}

// NewClient returns a new RealClient.
func NewClient() *RealClient {
	return &RealClient{}
}

func gitCmd(path string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", path}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *RealClient) Diff(path string) (string, error) {
	staged, err := gitCmd(path, "diff", "--staged")
	if err != nil {
		return "", err
	}
	if staged != "" {
		return staged, nil
	}
	return gitCmd(path, "diff")
}
