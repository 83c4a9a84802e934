package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reviewgate"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage reviewgate configuration.

Running bare 'reviewgate config' is the same as 'reviewgate config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# reviewgate configuration
# See: reviewgate config show (for effective values and sources)

# SQLite database path for API keys (default: ~/.config/reviewgate/reviewgate.db)
# db_path: {{ .DBPath }}

# Developer name attached to local (MCP) reviews
# developer: "{{ .Developer }}"

# Your personal API key for the 'review' client command
# api_key: ""

server:
  # Port the review API listens on
  port: {{ .ServerPort }}

  # URL the 'review' client command posts to
  url: "{{ .ServerURL }}"

  # Hard outer deadline for one review request; reviewers still running
  # when it fires are reported as errors
  timeout: "{{ .ServerTimeout }}"

review:
  # Diffs larger than this are truncated before review
  max_diff_chars: {{ .MaxDiffChars }}

  # Per-reviewer call timeout for panel members that don't set their own
  reviewer_timeout: "{{ .ReviewerTimeout }}"

# Provider credentials
anthropic:
  api_key: ""
openai:
  api_key: ""
openrouter:
  api_key: ""

# Reviewer panel. Uncomment and edit to replace the stock panel.
# panel:
#   - name: "Claude Sonnet 4.5"
#     provider: anthropic
#     model: claude-sonnet-4-5
#   - name: "GPT-4.1"
#     provider: openai
#     model: gpt-4.1
#     timeout: 90s
`

type configTemplateData struct {
	DBPath          string
	Developer       string
	ServerPort      int
	ServerURL       string
	ServerTimeout   string
	MaxDiffChars    int
	ReviewerTimeout string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		DBPath:          viper.GetString("db_path"),
		Developer:       viper.GetString("developer"),
		ServerPort:      viper.GetInt("server.port"),
		ServerURL:       viper.GetString("server.url"),
		ServerTimeout:   viper.GetString("server.timeout"),
		MaxDiffChars:    viper.GetInt("review.max_diff_chars"),
		ReviewerTimeout: viper.GetString("review.reviewer_timeout"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
	Secret bool
}

var configKeys = []configKeyInfo{
	{Key: "db_path", EnvVar: "REVIEWGATE_DB_PATH"},
	{Key: "developer", EnvVar: "REVIEWGATE_DEVELOPER"},
	{Key: "api_key", EnvVar: "REVIEWGATE_API_KEY", Secret: true},
	{Key: "server.port", EnvVar: "REVIEWGATE_SERVER_PORT"},
	{Key: "server.url", EnvVar: "REVIEWGATE_SERVER_URL"},
	{Key: "server.timeout", EnvVar: "REVIEWGATE_SERVER_TIMEOUT"},
	{Key: "review.max_diff_chars", EnvVar: "REVIEWGATE_REVIEW_MAX_DIFF_CHARS"},
	{Key: "review.reviewer_timeout", EnvVar: "REVIEWGATE_REVIEW_REVIEWER_TIMEOUT"},
	{Key: "anthropic.api_key", EnvVar: "REVIEWGATE_ANTHROPIC_API_KEY", Secret: true},
	{Key: "openai.api_key", EnvVar: "REVIEWGATE_OPENAI_API_KEY", Secret: true},
	{Key: "openrouter.api_key", EnvVar: "REVIEWGATE_OPENROUTER_API_KEY", Secret: true},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Secret {
			if s, ok := val.(string); ok && s != "" {
				val = "(set)"
			}
		}
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-26s %v  %s\n", k.Key, val, source)
	}

	panel, err := getPanel()
	if err != nil {
		return err
	}
	fmt.Fprintf(ui.Out, "\n  panel (%d reviewers):\n", len(panel))
	for _, spec := range panel {
		fmt.Fprintf(ui.Out, "    %-20s %-11s %s\n", spec.Name, spec.Provider, spec.Model)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'reviewgate config init' first)", cfgPath)
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
