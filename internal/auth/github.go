package auth

import (
	"errors"

	ghauth "github.com/cli/go-gh/v2/pkg/auth"
)

// ErrNoToken is returned when no provider yields a token.
var ErrNoToken = errors.New("no token found")

// GitHubOptions lists the places a GitHub token may come from.
type GitHubOptions struct {
	Flag        string
	DotEnv      func(string) string
	ConfigToken string
	Host        string

	// SkipCLI disables the gh CLI lookup. Tests set it.
	SkipCLI bool
}

const gitHubHelp = `Provide a token via one of:
  * --token flag
  * GITHUB_TOKEN or GH_TOKEN environment variable
  * GITHUB_TOKEN in the .env file of the data directory
  * github.token in reposync.toml
  * gh auth login             (auto-detected from gh CLI)

Create a token at: https://github.com/settings/tokens`

// ResolveGitHubToken finds a GitHub token.
// Priority order:
//  1. --token flag
//  2. GITHUB_TOKEN environment variable
//  3. GH_TOKEN environment variable
//  4. GITHUB_TOKEN / GH_TOKEN in the dotenv file
//  5. github.token from the config file
//  6. gh CLI auth for the host
func ResolveGitHubToken(opts GitHubOptions) (*Result, error) {
	host := opts.Host
	if host == "" {
		host = "github.com"
	}

	r := NewResolver("GitHub").
		WithFlagValue(opts.Flag).
		WithEnvs("GITHUB_TOKEN", "GH_TOKEN").
		WithDotEnv(opts.DotEnv, "GITHUB_TOKEN", "GH_TOKEN").
		WithConfigValue(opts.ConfigToken).
		WithHelpMessage(gitHubHelp)

	if !opts.SkipCLI {
		r.WithProvider(func() (string, string, error) {
			token, _ := ghauth.TokenForHost(host)
			return token, "cli:gh", nil
		})
	}

	return r.Resolve()
}
