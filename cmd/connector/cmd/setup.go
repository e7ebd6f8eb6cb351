package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartallu/connector/internal/constants"
	"github.com/kartallu/connector/internal/onboard"
)

var (
	setupInteractive bool
	setupProjects    string
	setupKeyFile     string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the connector's service account, role, and bindings",
	Long: `Provision everything the connector needs: a service account with a JSON
key, a custom role built from the embedded read-only permission set, and a
role binding in every target project. On failure, partially provisioned
resources are rolled back. The final summary lists the values cleanup needs.`,
	Example: fmt.Sprintf(`  # Provision in the configured home project only
  %[1]s setup

  # Walk through every choice interactively
  %[1]s setup --interactive

  # Bind the role across an explicit project list, role at org scope
  %[1]s setup --org 123456789012 --projects proj-a,proj-b,proj-c

  # Bind in every project visible to the current credentials
  %[1]s setup --projects all`, constants.ProjectName),
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVarP(&setupInteractive, "interactive", "i", false,
		"prompt for every choice instead of taking defaults")
	setupCmd.Flags().StringVar(&setupProjects, "projects", "",
		fmt.Sprintf("comma-separated target projects, or %q for every visible project (default: the home project)",
			constants.AllProjectsKeyword))
	setupCmd.Flags().StringVar(&setupKeyFile, "key-file", "",
		"path for the issued JSON key (default: ./connector-key-<runid>.json)")
}

func runSetup(cmd *cobra.Command, _ []string) error {
	runCfg := onboard.RunConfig{
		Interactive:  setupInteractive,
		Project:      cfg.Project,
		OrgID:        cfg.OrgID,
		RunID:        onboard.NewRunID(),
		ProjectsSpec: setupProjects,
		KeyPath:      setupKeyFile,
		KeyDir:       cfg.KeyDir,
	}
	if runCfg.KeyDir == "" {
		runCfg.KeyDir = "."
	}

	w, err := newWorkflow(cmd, runCfg)
	if err != nil {
		return err
	}

	if _, err := w.Setup(cmd.Context()); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	return nil
}
