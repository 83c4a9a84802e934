package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reviewgate/reviewgate/internal/output"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage API keys",
	Long:  "Create, list, enable, and disable the API keys developers use to call the review service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyListRun()
	},
}

var keyCreateCmd = &cobra.Command{
	Use:   "create <developer>",
	Short: "Create a new API key for a developer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyCreateRun(args[0])
	},
}

var keyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyListRun()
	},
}

var keyEnableCmd = &cobra.Command{
	Use:   "enable <key>",
	Short: "Enable an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keySetEnabledRun(args[0], true)
	},
}

var keyDisableCmd = &cobra.Command{
	Use:   "disable <key>",
	Short: "Disable an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keySetEnabledRun(args[0], false)
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete an API key permanently",
	Long:  "Delete an API key and its usage count. Prefer 'key disable' to revoke access while keeping the usage history.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyDeleteRun(args[0])
	},
}

var keyUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show usage counts per developer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyUsageRun()
	},
}

func init() {
	keyCmd.AddCommand(keyCreateCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyEnableCmd)
	keyCmd.AddCommand(keyDisableCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyUsageCmd)
	rootCmd.AddCommand(keyCmd)
}

func keyCreateRun(developer string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	k, err := s.CreateKey(context.Background(), developer)
	if err != nil {
		return fmt.Errorf("create key: %w", err)
	}

	ui.Success("Created API key for %s:", output.Cyan(developer))
	fmt.Fprintf(ui.Out, "  %s\n\n", output.Bold(k.Key))
	ui.Info("Give this to the developer. They set it as REVIEWGATE_API_KEY.")
	return nil
}

func keyListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	keys, err := s.ListKeys(context.Background())
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		ui.Info("No API keys. Use 'reviewgate key create <developer>' to create one.")
		return nil
	}

	table := ui.Table([]string{"Developer", "Enabled", "Uses", "API Key"})
	for _, k := range keys {
		enabled := output.Green("yes")
		if !k.Enabled {
			enabled = output.Red("NO")
		}
		_ = table.Append([]string{
			output.Cyan(k.DeveloperName),
			enabled,
			strconv.FormatInt(k.UsageCount, 10),
			k.Key,
		})
	}
	_ = table.Render()
	return nil
}

func keySetEnabledRun(apiKey string, enabled bool) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if err := s.SetKeyEnabled(context.Background(), apiKey, enabled); err != nil {
		return err
	}

	status := "enabled"
	if !enabled {
		status = "disabled"
	}
	ui.Success("API key %s is now %s.", apiKey, status)
	return nil
}

func keyDeleteRun(apiKey string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if err := s.DeleteKey(context.Background(), apiKey); err != nil {
		return err
	}

	ui.Success("API key %s deleted.", apiKey)
	return nil
}

func keyUsageRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	keys, err := s.ListKeys(context.Background())
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		ui.Info("No API keys.")
		return nil
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].UsageCount > keys[j].UsageCount
	})

	var total int64
	table := ui.Table([]string{"Developer", "Uses", "Created"})
	for _, k := range keys {
		total += k.UsageCount
		_ = table.Append([]string{
			output.Cyan(k.DeveloperName),
			strconv.FormatInt(k.UsageCount, 10),
			k.CreatedAt.Format("2006-01-02"),
		})
	}
	_ = table.Render()

	fmt.Fprintf(ui.Out, "\nTotal reviews: %d\n", total)
	return nil
}
