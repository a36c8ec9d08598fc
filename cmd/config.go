package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect reposync configuration",
	Long: `Commands for inspecting reposync configuration.

Available Commands:
  show      Print the effective configuration as TOML`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration after applying reposync.toml, the .env file,
environment variables and flags. The GitHub token is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		shown := *cfg
		shown.GitHub.Token = maskToken(shown.GitHub.Token)

		if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(shown); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}

		return nil
	},
}

// maskToken keeps the first four characters of a token.
func maskToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return "****"
	default:
		return token[:4] + "****"
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}
