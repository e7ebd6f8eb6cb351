package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kartallu/connector/internal/constants"
	"github.com/kartallu/connector/internal/onboard"
)

var (
	cleanupInteractive    bool
	cleanupServiceAccount string
	cleanupRole           string
	cleanupProjects       string
	cleanupManifest       string
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove the connector's service account, role, and bindings",
	Long: `Remove the resources a previous setup run provisioned: the role bindings,
the custom role, and the service account. Cleanup is best-effort: failed
steps are reported and the remaining steps still run, so it is safe to
re-run until everything is gone.`,
	Example: fmt.Sprintf(`  # Identify the resources explicitly, as printed by setup
  %[1]s cleanup --service-account sa@proj.iam.gserviceaccount.com \
    --role projects/proj/roles/connectorAccess_x --projects proj-a,proj-b

  # Read the identifiers from the manifest setup wrote
  %[1]s cleanup --manifest connector-cleanup-20260825-101500.yaml

  # Prompt for anything missing
  %[1]s cleanup --interactive`, constants.ProjectName),
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().BoolVarP(&cleanupInteractive, "interactive", "i", false,
		"prompt for missing identifiers")
	cleanupCmd.Flags().StringVar(&cleanupServiceAccount, "service-account", "",
		"email of the service account to delete")
	cleanupCmd.Flags().StringVar(&cleanupRole, "role", "",
		"custom role to delete, bare id or scope-qualified reference")
	cleanupCmd.Flags().StringVar(&cleanupProjects, "projects", "",
		"comma-separated projects to unbind, or \"all\" (default: the home project)")
	cleanupCmd.Flags().StringVar(&cleanupManifest, "manifest", "",
		"cleanup manifest written by setup; flags override its values")
}

// cleanupInputs are the identifiers of the resources to remove, merged from
// flags and, when given, the cleanup manifest. Flags win.
type cleanupInputs struct {
	Email    string
	Role     string
	Projects string
	OrgID    string
}

func resolveCleanupInputs(manifestPath, email, role, projects, orgID string) (cleanupInputs, error) {
	in := cleanupInputs{Email: email, Role: role, Projects: projects, OrgID: orgID}
	if manifestPath == "" {
		return in, nil
	}

	m, err := onboard.LoadManifest(manifestPath)
	if err != nil {
		return cleanupInputs{}, err
	}
	if in.Email == "" {
		in.Email = m.ServiceAccount
	}
	if in.Role == "" {
		in.Role = m.RoleRef
	}
	if in.Projects == "" {
		in.Projects = strings.Join(m.Projects, ",")
	}
	if in.OrgID == "" {
		in.OrgID = m.Organization
	}
	return in, nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	in, err := resolveCleanupInputs(
		cleanupManifest, cleanupServiceAccount, cleanupRole, cleanupProjects, cfg.OrgID)
	if err != nil {
		return err
	}

	runCfg := onboard.RunConfig{
		Interactive: cleanupInteractive,
		Project:     cfg.Project,
		OrgID:       in.OrgID,
		RunID:       onboard.NewRunID(),
	}

	w, err := newWorkflow(cmd, runCfg)
	if err != nil {
		return err
	}

	if err := w.Cleanup(cmd.Context(), in.Email, in.Role, in.Projects); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}
