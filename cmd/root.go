package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/output"
	"github.com/reviewgate/reviewgate/internal/provider"
	"github.com/reviewgate/reviewgate/internal/review"
	"github.com/reviewgate/reviewgate/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "reviewgate",
	Short: "Multi-model code review gate",
	Long: `reviewgate gates code changes behind a panel of independent AI reviewers.
A diff is sent to every panel member in parallel and their individual
verdicts are reduced to one majority PASS/FAIL decision.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/reviewgate/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "reviewgate")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REVIEWGATE")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "reviewgate")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "reviewgate.db"))
	viper.SetDefault("developer", "local")
	viper.SetDefault("api_key", "")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.url", "http://localhost:8080")
	viper.SetDefault("server.timeout", "5m")
	viper.SetDefault("review.max_diff_chars", review.DefaultMaxDiffChars)
	viper.SetDefault("review.reviewer_timeout", "2m")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openrouter.api_key", "")
	viper.SetDefault("panel", defaultPanel())

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// The store is initialized lazily via getStore(); only commands that
	// touch the key database need it.
}

// defaultPanel is the stock five-member panel. Panel membership is pure
// configuration: overriding the "panel" key replaces it wholesale.
func defaultPanel() []map[string]any {
	return []map[string]any{
		{"name": "Claude Sonnet 4.5", "provider": "anthropic", "model": "claude-sonnet-4-5"},
		{"name": "GPT-4.1", "provider": "openai", "model": "gpt-4.1"},
		{"name": "Gemini 2.5 Pro", "provider": "openrouter", "model": "google/gemini-2.5-pro"},
		{"name": "DeepSeek V3", "provider": "openrouter", "model": "deepseek/deepseek-chat-v3-0324"},
		{"name": "Kimi K2", "provider": "openrouter", "model": "moonshotai/kimi-k2"},
	}
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getPanel loads the reviewer panel from config, applying the shared
// reviewer timeout to members that don't set their own.
func getPanel() ([]models.ReviewerSpec, error) {
	var specs []models.ReviewerSpec
	if err := viper.UnmarshalKey("panel", &specs); err != nil {
		return nil, fmt.Errorf("parse panel config: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("panel config is empty")
	}

	defaultTimeout := viper.GetDuration("review.reviewer_timeout")
	for i := range specs {
		if specs[i].Name == "" || specs[i].Model == "" {
			return nil, fmt.Errorf("panel member %d: name and model are required", i)
		}
		if specs[i].Timeout <= 0 {
			specs[i].Timeout = defaultTimeout
		}
	}
	return specs, nil
}

// buildEngine assembles the review engine from config.
func buildEngine() (*review.Engine, error) {
	specs, err := getPanel()
	if err != nil {
		return nil, err
	}

	factory := provider.NewFactory(provider.Config{
		AnthropicAPIKey:  viper.GetString("anthropic.api_key"),
		OpenAIAPIKey:     viper.GetString("openai.api_key"),
		OpenRouterAPIKey: viper.GetString("openrouter.api_key"),
	})

	return review.NewEngine(specs, factory, viper.GetInt("review.max_diff_chars")), nil
}

// serverTimeout returns the outer deadline for one review request.
func serverTimeout() time.Duration {
	return viper.GetDuration("server.timeout")
}
