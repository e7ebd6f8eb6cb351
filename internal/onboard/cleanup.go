package onboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/kartallu/connector/internal/errors"
	"github.com/kartallu/connector/internal/output"
)

// Rollback reverses provisioned state, best-effort: every step failure is
// reported and the remaining steps still run. It never re-arms itself. The
// role is deleted last, after its bindings are removed; the returned error
// joins the step failures for reporting only.
func (w *Workflow) Rollback(ctx context.Context, st *State) error {
	var errs []error

	if st.Principal.Email != "" && st.Principal.Origin == OriginCreated {
		if err := w.Clients.IAM.DeleteServiceAccount(ctx, w.Config.Project, st.Principal.Email); err != nil {
			errs = append(errs, w.reportStepFailure("delete service account "+st.Principal.Email, err))
		} else {
			output.Successf("service account %s deleted", st.Principal.Email)
			w.Log.Info("service account deleted", "email", st.Principal.Email)
		}
	}

	if st.Role.Ref != "" {
		member := st.Principal.Member()
		for _, project := range st.Projects {
			if err := w.Clients.Bindings.RemoveBinding(ctx, project, member, st.Role.Ref); err != nil {
				errs = append(errs, w.reportStepFailure("remove binding in project "+project, err))
			} else {
				w.Log.Info("role binding removed", "project", project)
			}
		}

		if err := w.Clients.IAM.DeleteRole(ctx, st.Role.Ref); err != nil {
			errs = append(errs, w.reportStepFailure("delete role "+st.Role.Ref, err))
		} else {
			output.Successf("custom role %s deleted", st.Role.Ref)
			w.Log.Info("custom role deleted", "role", st.Role.Ref)
		}
	}

	return errors.Join(errs...)
}

// Cleanup runs the standalone teardown given identifiers from a previous run
// (flags, prompts, or a cleanup manifest). It starts from a fresh state with
// no knowledge of the principal's origin, so the principal is always deleted.
func (w *Workflow) Cleanup(ctx context.Context, email, roleID, projectsSpec string) error {
	if w.Config.Project == "" {
		return apperrors.ErrInvalidConfig(
			"no project configured: pass --project, set CONNECTOR_PROJECT, or configure default credentials", nil)
	}

	if w.Config.Interactive {
		var err error
		if email == "" {
			if email, err = w.Prompter.AskRequired("Service account email"); err != nil {
				return err
			}
		}
		if roleID == "" {
			if roleID, err = w.Prompter.AskRequired("Custom role id"); err != nil {
				return err
			}
		}
		if projectsSpec == "" {
			if projectsSpec, err = w.Prompter.AskDefault("Target projects (comma separated, or 'all')", w.Config.Project); err != nil {
				return err
			}
		}
	}
	if email == "" {
		return apperrors.ErrInvalidInput("service account email is required", nil)
	}
	if roleID == "" {
		return apperrors.ErrInvalidInput("role id is required", nil)
	}

	projects, err := ResolveProjects(ctx, w.Clients.Projects, projectsSpec, w.Config.Project)
	if err != nil {
		return err
	}

	scope := ResolveScope(w.Config.OrgID, w.Config.Project)
	// Accept either the bare role id or the scope-qualified reference as
	// printed by setup.
	ref := roleID
	if !strings.Contains(roleID, "/") {
		ref = scope.RoleRef(roleID)
	}
	st := &State{
		Principal: Principal{Email: email, Origin: OriginCreated},
		Role:      CustomRole{ID: roleID, Scope: scope, Ref: ref},
		Projects:  projects,
	}

	output.Infof("removing onboarding resources for %s", email)
	if err := w.Rollback(ctx, st); err != nil {
		output.Warningf("cleanup finished with failed steps; re-run or remove the remainder manually")
		return nil
	}
	output.Successf("cleanup complete")
	return nil
}

func (w *Workflow) reportStepFailure(step string, err error) error {
	output.Warningf("could not %s: %v", step, err)
	w.Log.Warn("rollback step failed", "step", step, "error", err)
	return apperrors.ErrRollbackStep(fmt.Sprintf("could not %s", step), err)
}
