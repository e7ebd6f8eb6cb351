package onboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kartallu/connector/internal/constants"
	apperrors "github.com/kartallu/connector/internal/errors"
	"github.com/kartallu/connector/internal/gcp"
	"github.com/kartallu/connector/internal/output"
)

const keyFilePermissions = 0o600

// RunConfig carries the resolved inputs of one invocation.
type RunConfig struct {
	Interactive bool
	// Project is the home project owning the service account.
	Project string
	// OrgID, when set, switches the custom role scope to the organization.
	OrgID string
	// RunID is the timestamp-derived identifier used for default names and
	// file naming. Injectable so tests can pin it.
	RunID string
	// ProjectsSpec is the raw target-project specification (explicit list,
	// "all", or empty for the home project).
	ProjectsSpec string
	// KeyPath overrides the derived credential file path when set.
	KeyPath string
	// KeyDir is where the key file and cleanup manifest are written.
	KeyDir string
}

// NewRunID derives a run identifier from the current UTC time.
func NewRunID() string {
	return time.Now().UTC().Format(constants.RunIDLayout)
}

// Workflow executes the onboarding workflows against a set of provider
// clients. Every step is a blocking sequential call; the first provider
// failure is fatal to the run.
type Workflow struct {
	Clients  *gcp.ServiceClients
	Config   RunConfig
	Prompter *Prompter
	Log      *slog.Logger

	// PropagationDelay is the fixed wait between service account creation and
	// key issuance. Sleep is injectable so tests skip the wait.
	PropagationDelay time.Duration
	Sleep            func(time.Duration)
}

// NewWorkflow builds a workflow with production defaults.
func NewWorkflow(clients *gcp.ServiceClients, cfg RunConfig, log *slog.Logger) *Workflow {
	return &Workflow{
		Clients:          clients,
		Config:           cfg,
		Log:              log,
		PropagationDelay: constants.KeyPropagationDelay,
		Sleep:            time.Sleep,
	}
}

// Setup runs the provisioning workflow. The rollback guard is armed as soon
// as remote state exists and disarmed immediately before successful return;
// it fires on any error path and on panics.
func (w *Workflow) Setup(ctx context.Context) (*State, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	st := &State{}
	defer func() {
		if st.RollbackArmed {
			output.Warningf("setup failed, rolling back partial state")
			w.Rollback(ctx, st)
		}
	}()

	output.Step(1, 4, "resolving service account")
	if err := w.resolvePrincipal(ctx, st); err != nil {
		return nil, err
	}

	output.Step(2, 4, "issuing service account key")
	if err := w.issueCredential(ctx, st); err != nil {
		return nil, err
	}

	spec := w.Config.ProjectsSpec
	if w.Config.Interactive {
		answer, perr := w.Prompter.AskDefault(
			"Target projects (comma separated, or 'all')", w.Config.Project)
		if perr != nil {
			return nil, perr
		}
		spec = answer
	}
	projects, err := ResolveProjects(ctx, w.Clients.Projects, spec, w.Config.Project)
	if err != nil {
		return nil, err
	}
	st.Projects = projects
	w.Log.Debug("resolved target projects", "count", len(projects))

	output.Step(3, 4, "creating custom role")
	if err := w.createRole(ctx, st); err != nil {
		return nil, err
	}

	output.Step(4, 4, fmt.Sprintf("binding role in %d project(s)", len(st.Projects)))
	if err := w.bindProjects(ctx, st); err != nil {
		return nil, err
	}

	w.printSummary(st)
	w.writeManifest(st)

	st.RollbackArmed = false
	return st, nil
}

func (w *Workflow) validate() error {
	if w.Config.Project == "" {
		return apperrors.ErrInvalidConfig(
			"no project configured: pass --project, set CONNECTOR_PROJECT, or configure default credentials", nil)
	}
	if w.Config.RunID == "" {
		return apperrors.ErrInvalidConfig("run id is empty", nil)
	}
	if w.Config.Interactive && w.Prompter == nil {
		return apperrors.ErrInvalidConfig("interactive mode requires a prompter", nil)
	}
	return nil
}

// resolvePrincipal obtains the service account: created fresh, or reused when
// the operator points at an existing one. Creation failure is fatal without
// rollback since nothing exists yet; success arms the rollback guard.
func (w *Workflow) resolvePrincipal(ctx context.Context, st *State) error {
	createNew := true
	if w.Config.Interactive {
		answer, err := w.Prompter.Confirm("Create a new service account", true)
		if err != nil {
			return err
		}
		createNew = answer
	}

	if !createNew {
		if err := w.listAccountsForReference(ctx); err != nil {
			return err
		}
		email, err := w.Prompter.AskRequired("Service account email")
		if err != nil {
			return err
		}
		st.Principal = Principal{Email: email, Origin: OriginReused}
		st.RollbackArmed = true
		w.Log.Info("reusing existing service account", "email", email)
		return nil
	}

	accountID := DefaultAccountID(w.Config.RunID)
	if w.Config.Interactive {
		answer, err := w.Prompter.AskDefault("Service account name", accountID)
		if err != nil {
			return err
		}
		accountID, err = SanitizeAccountID(answer)
		if err != nil {
			return err
		}
	}

	displayName := "Security connector (" + w.Config.RunID + ")"
	email, err := w.Clients.IAM.CreateServiceAccount(ctx, w.Config.Project, accountID, displayName)
	if err != nil {
		return apperrors.ErrProviderCall("failed to create service account", err)
	}
	if email == "" {
		email = PrincipalEmail(accountID, w.Config.Project)
	}

	st.Principal = Principal{Email: email, Origin: OriginCreated}
	st.RollbackArmed = true
	output.Successf("service account %s created", email)
	w.Log.Info("service account created", "email", email)

	// Newly created accounts propagate asynchronously; issuing a key right
	// away intermittently fails with not-found.
	if w.PropagationDelay > 0 {
		w.Log.Debug("waiting for service account propagation", "delay", w.PropagationDelay)
		w.Sleep(w.PropagationDelay)
	}
	return nil
}

func (w *Workflow) listAccountsForReference(ctx context.Context) error {
	accounts, err := w.Clients.IAM.ListServiceAccounts(ctx, w.Config.Project)
	if err != nil {
		return apperrors.ErrProviderCall("failed to list service accounts", err)
	}
	rows := make([][]string, 0, len(accounts))
	for _, sa := range accounts {
		rows = append(rows, []string{sa.Email, sa.DisplayName})
	}
	output.Table([]string{"EMAIL", "DISPLAY NAME"}, rows)
	return nil
}

func (w *Workflow) issueCredential(ctx context.Context, st *State) error {
	material, err := w.Clients.IAM.CreateServiceAccountKey(ctx, w.Config.Project, st.Principal.Email)
	if err != nil {
		return apperrors.ErrProviderCall("failed to create service account key", err)
	}

	path := w.Config.KeyPath
	if path == "" {
		path = filepath.Join(w.Config.KeyDir, fmt.Sprintf("connector-key-%s.json", w.Config.RunID))
	}
	if err := os.WriteFile(path, material, keyFilePermissions); err != nil {
		return apperrors.ErrProviderCall("failed to write key file", err)
	}

	st.Principal.KeyFile = path
	output.Successf("key written to %s", path)
	w.Log.Info("service account key issued", "path", path)
	return nil
}

func (w *Workflow) createRole(ctx context.Context, st *State) error {
	roleID := DefaultRoleID(w.Config.RunID)
	orgID := w.Config.OrgID
	if w.Config.Interactive {
		answer, err := w.Prompter.AskDefault("Custom role id", roleID)
		if err != nil {
			return err
		}
		roleID, err = SanitizeRoleID(answer)
		if err != nil {
			return err
		}
		if orgID == "" {
			orgID, err = w.Prompter.Ask("Organization ID (blank for project scope)")
			if err != nil {
				return err
			}
		}
	} else if err := ValidateRoleID(roleID); err != nil {
		return err
	}

	scope := ResolveScope(orgID, w.Config.Project)
	st.Role = CustomRole{ID: roleID, Scope: scope}

	ref, err := w.Clients.IAM.CreateRole(
		ctx, scope.Parent(), roleID, RoleTitle, RoleDescription, ConnectorPermissions)
	if err != nil {
		return apperrors.ErrProviderCall(fmt.Sprintf("failed to create role in %s", scope), err)
	}
	if ref == "" {
		ref = scope.RoleRef(roleID)
	}

	st.Role.Ref = ref
	output.Successf("custom role %s created", ref)
	w.Log.Info("custom role created", "role", ref, "scope", scope.String())
	return nil
}

// bindProjects grants the role in order and fails fast: the first failure
// terminates the run without touching the remaining projects. st.Projects is
// already the full intended list, so the rollback guard unbinds everything,
// relying on absent-binding removal being a no-op.
func (w *Workflow) bindProjects(ctx context.Context, st *State) error {
	member := st.Principal.Member()
	for _, project := range st.Projects {
		if err := w.Clients.Bindings.AddBinding(ctx, project, member, st.Role.Ref); err != nil {
			return apperrors.ErrProviderCall(
				fmt.Sprintf("failed to bind role in project %s", project), err)
		}
		w.Log.Info("role bound", "project", project)
	}
	return nil
}

func (w *Workflow) printSummary(st *State) {
	output.Header("Onboarding complete")
	output.Println("Retain these values; cleanup requires them:")
	output.KeyValue("Scope", st.Role.Scope.String())
	output.KeyValueBold("Service account", st.Principal.Email)
	output.KeyValue("Key file", st.Principal.KeyFile)
	output.KeyValueBold("Role", st.Role.Ref)
	output.KeyValue("Projects", strings.Join(st.Projects, ", "))
}

func (w *Workflow) writeManifest(st *State) {
	path := filepath.Join(w.Config.KeyDir, fmt.Sprintf("connector-cleanup-%s.yaml", w.Config.RunID))
	if err := NewManifest(st).Write(path); err != nil {
		output.Warningf("could not write cleanup manifest: %v", err)
		w.Log.Warn("cleanup manifest not written", "error", err)
		return
	}
	output.KeyValue("Cleanup manifest", path)
}
