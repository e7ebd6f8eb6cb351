// Package cmd implements the CLI commands for the connector tool.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartallu/connector/internal/config"
	"github.com/kartallu/connector/internal/constants"
	"github.com/kartallu/connector/internal/gcp"
	"github.com/kartallu/connector/internal/logger"
	"github.com/kartallu/connector/internal/onboard"
	"github.com/kartallu/connector/internal/output"
)

var (
	debug   bool
	verbose bool
	timeout time.Duration

	projectFlag string
	orgFlag     string

	timeoutCancel context.CancelFunc

	// cfg is loaded once in PersistentPreRunE and read by the subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Onboard a security connector to Google Cloud",
	Long: fmt.Sprintf(`%s - %s
Provisions the service account, custom role, and project bindings a
security connector needs for read-only access, and removes them again.`,
		constants.ProjectName, *constants.GetVersion()),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		printHeader(cmd)

		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		log := logger.Initialize(logLevel)

		loaded, err := config.Load()
		if err != nil {
			log.Warn("failed to load configuration", "error", err)
			loaded = &config.Config{}
		}
		if projectFlag != "" {
			loaded.Project = projectFlag
		}
		if orgFlag != "" {
			loaded.OrgID = orgFlag
		}
		cfg = loaded

		if timeout > 0 {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			timeoutCancel = cancel
			cmd.SetContext(ctx)
		}

		if verbose {
			output.Infof("CLI build: " + output.Bold(*constants.GetVersion()))
			output.Infof("Timeout: %s", timeout)
			if cfg.Project != "" {
				output.Infof("Home project: %s", output.Bold(cfg.Project))
			}
			if cfg.OrgID != "" {
				output.Infof("Organization: %s", output.Bold(cfg.OrgID))
			}
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if timeoutCancel != nil {
			timeoutCancel()
		}
	},
}

// Execute runs the root command and handles cleanup of the timeout context.
func Execute() {
	err := rootCmd.Execute()
	if timeoutCancel != nil {
		timeoutCancel()
	}
	if err != nil {
		output.Errorf("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute,
		"Timeout for command execution (e.g., 10m, 30s; 0 disables)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "",
		"home project owning the service account (overrides configuration)")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "",
		"organization ID; defines the custom role at organization scope")
}

func printHeader(cmd *cobra.Command) {
	output.Header(output.Bold(constants.ProjectName + " " + cmd.CalledAs()))
}

// newWorkflow wires real provider clients into an onboarding workflow.
// The home project falls back to the Application Default Credentials project
// when neither flag nor configuration provides one.
func newWorkflow(cmd *cobra.Command, runCfg onboard.RunConfig) (*onboard.Workflow, error) {
	ctx := cmd.Context()

	if runCfg.Project == "" {
		project, err := gcp.DefaultProject(ctx)
		if err == nil && project != "" {
			runCfg.Project = project
			slog.Default().Debug("using project from default credentials", "project", project)
		}
	}

	clients, err := gcp.NewServiceClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider clients: %w", err)
	}

	w := onboard.NewWorkflow(clients, runCfg, slog.Default())
	if runCfg.Interactive {
		w.Prompter = onboard.NewPrompter(os.Stdin, os.Stderr)
	}
	return w, nil
}

// RootCmd returns the root command for use by tools like doc generators.
func RootCmd() *cobra.Command {
	return rootCmd
}
