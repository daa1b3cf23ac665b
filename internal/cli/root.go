package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/repository"
	"github.com/noah-isme/users-web/internal/service"
	"github.com/noah-isme/users-web/pkg/config"
	"github.com/noah-isme/users-web/pkg/logger"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	apiURL  string
	timeout time.Duration
	debug   bool
}

// client bundles what the subcommands need to talk to the User API.
type client struct {
	users   *service.UserService
	baseURL string
}

// NewRootCmd creates the usersctl root command with its subcommands.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "usersctl",
		Short:         "Operate the user management front-end",
		Long:          "usersctl checks and drives the User API the web front-end proxies to",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Check that the User API answers
  usersctl test-api

  # Point at another API and list female users sorted by last name
  usersctl --api-url http://api.internal:4000/api list --gender female --sort last_name

  # Trigger the bulk import
  usersctl import`,
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "User API base URL (overrides API_BASE_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "User API request timeout (overrides API_TIMEOUT)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log API calls to stderr")

	cmd.AddCommand(newTestAPICmd(opts), newImportCmd(opts), newListCmd(opts))
	return cmd
}

// connect builds a UserService from configuration and flag overrides.
func connect(opts *globalOptions) (*client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.timeout > 0 {
		cfg.API.Timeout = opts.timeout
	}

	logr := zap.NewNop()
	if opts.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
		if logr, err = logger.New(cfg); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	repo := repository.NewUserAPIRepository(repository.UserAPIConfig{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, nil, nil, logr)

	return &client{users: service.NewUserService(repo, nil, logr), baseURL: repo.BaseURL()}, nil
}
