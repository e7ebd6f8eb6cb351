package onboard

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartallu/connector/internal/logger"
	"github.com/kartallu/connector/internal/output"
)

const testRunID = "20260825-101500"

func silenceOutput(t *testing.T) {
	t.Helper()
	oldOut, oldErr := output.Stdout, output.Stderr
	t.Cleanup(func() { output.Stdout, output.Stderr = oldOut, oldErr })
	output.Stdout, output.Stderr = io.Discard, io.Discard
}

func newTestWorkflow(t *testing.T, f *fakeProvider, cfg RunConfig, input string) *Workflow {
	t.Helper()
	silenceOutput(t)

	if cfg.Project == "" {
		cfg.Project = "acme-home"
	}
	if cfg.RunID == "" {
		cfg.RunID = testRunID
	}
	if cfg.KeyDir == "" {
		cfg.KeyDir = t.TempDir()
	}

	w := NewWorkflow(f.clients(), cfg, logger.New(io.Discard, slog.LevelError))
	w.PropagationDelay = 0
	if input != "" {
		w.Config.Interactive = true
		w.Prompter = NewPrompter(strings.NewReader(input), io.Discard)
	}
	return w
}

func TestSetup_NonInteractive_HappyPath(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{}, "")

	st, err := w.Setup(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "connector-"+testRunID+"@acme-home.iam.gserviceaccount.com", st.Principal.Email)
	assert.Equal(t, OriginCreated, st.Principal.Origin)
	assert.False(t, st.RollbackArmed, "rollback must be disarmed on success")

	// Key file written with the run id in the name.
	assert.FileExists(t, st.Principal.KeyFile)
	assert.Contains(t, filepath.Base(st.Principal.KeyFile), testRunID)

	// Project-scoped role, bound in the home project only.
	assert.Equal(t, "projects/acme-home/roles/connectorAccess_20260825_101500", st.Role.Ref)
	assert.Equal(t, []string{"acme-home"}, st.Projects)
	assert.Equal(t, 1, f.boundCount())

	// Nothing was rolled back.
	assert.Zero(t, f.callCount("DeleteServiceAccount"))
	assert.Zero(t, f.callCount("DeleteRole"))
	assert.Zero(t, f.callCount("RemoveBinding"))
}

func TestSetup_WritesCleanupManifest(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{}, "")

	st, err := w.Setup(t.Context())
	require.NoError(t, err)

	path := filepath.Join(w.Config.KeyDir, "connector-cleanup-"+testRunID+".yaml")
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, st.Principal.Email, m.ServiceAccount)
	assert.Equal(t, st.Role.Ref, m.RoleRef)
	assert.Equal(t, st.Projects, m.Projects)
}

func TestSetup_OrgScope(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{OrgID: "123456789012"}, "")

	st, err := w.Setup(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "organizations/123456789012/roles/connectorAccess_20260825_101500", st.Role.Ref)
}

func TestSetup_ValidationFailure_NoProviderCalls(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{}, "")
	w.Config.Project = ""

	_, err := w.Setup(t.Context())
	require.Error(t, err)
	assert.Empty(t, f.calls, "validation failures must not touch the provider")
}

func TestSetup_PrincipalCreationFailure_NoRollback(t *testing.T) {
	f := newFakeProvider()
	f.failOn["CreateServiceAccount"] = errors.New("permission denied")
	w := newTestWorkflow(t, f, RunConfig{}, "")

	_, err := w.Setup(t.Context())
	require.Error(t, err)

	// Nothing existed yet, so nothing is deleted.
	assert.Zero(t, f.callCount("DeleteServiceAccount"))
	assert.Zero(t, f.callCount("DeleteRole"))
	assert.Zero(t, f.callCount("RemoveBinding"))
}

func TestSetup_KeyIssuanceFailure_DeletesExactlyTheCreatedPrincipal(t *testing.T) {
	f := newFakeProvider()
	f.failOn["CreateServiceAccountKey"] = errors.New("quota exceeded")
	w := newTestWorkflow(t, f, RunConfig{}, "")

	_, err := w.Setup(t.Context())
	require.Error(t, err)

	assert.Equal(t, 1, f.callCount("DeleteServiceAccount"))
	assert.Empty(t, f.accounts, "created principal must be deleted")
	// No projects were resolved yet, so no unbinding may happen.
	assert.Zero(t, f.callCount("RemoveBinding"))
	assert.Zero(t, f.callCount("DeleteRole"))
}

func TestSetup_RoleCreationFailure_ReusedPrincipalSurvives(t *testing.T) {
	f := newFakeProvider()
	f.accounts["existing@acme-home.iam.gserviceaccount.com"] = true
	f.failOn["CreateRole"] = errors.New("role quota reached")

	// Scripted session: reuse existing account, default targets, default
	// role id, project scope.
	input := "n\nexisting@acme-home.iam.gserviceaccount.com\n\n\n\n"
	w := newTestWorkflow(t, f, RunConfig{}, input)

	_, err := w.Setup(t.Context())
	require.Error(t, err)

	assert.Zero(t, f.callCount("DeleteServiceAccount"), "reused principal must not be deleted")
	assert.True(t, f.accounts["existing@acme-home.iam.gserviceaccount.com"])
}

func TestSetup_BindingFailure_FailsFastAndKeepsIntendedList(t *testing.T) {
	f := newFakeProvider()
	f.failOn["AddBinding:proj-2"] = errors.New("policy write conflict")
	w := newTestWorkflow(t, f, RunConfig{ProjectsSpec: "proj-1,proj-2,proj-3"}, "")

	_, err := w.Setup(t.Context())
	require.Error(t, err)

	// proj-3 must never be attempted.
	assert.Equal(t, 2, f.callCount("AddBinding"))
	assert.Zero(t, f.callCount("AddBinding:proj-3"))

	// Rollback unbinds the full intended list; absent bindings are no-ops.
	assert.Equal(t, 1, f.callCount("RemoveBinding:proj-1"))
	assert.Equal(t, 1, f.callCount("RemoveBinding:proj-2"))
	assert.Equal(t, 1, f.callCount("RemoveBinding:proj-3"))
	assert.Equal(t, 1, f.callCount("DeleteRole"))
	assert.Equal(t, 1, f.callCount("DeleteServiceAccount"))
	assert.Zero(t, f.boundCount())
	assert.Empty(t, f.roles)
}

func TestSetup_WildcardProjects_ResolvedLive(t *testing.T) {
	f := newFakeProvider()
	f.visible = []string{"proj-a", "proj-b", "proj-c"}
	w := newTestWorkflow(t, f, RunConfig{ProjectsSpec: "all"}, "")

	st, err := w.Setup(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{"proj-a", "proj-b", "proj-c"}, st.Projects)
	assert.Equal(t, 3, f.boundCount())
	assert.Equal(t, 1, f.callCount("SearchProjects"))
}

func TestSetup_DistinctRunIDsDoNotCollide(t *testing.T) {
	f := newFakeProvider()

	w1 := newTestWorkflow(t, f, RunConfig{RunID: "20260825-101500"}, "")
	st1, err := w1.Setup(t.Context())
	require.NoError(t, err)

	w2 := newTestWorkflow(t, f, RunConfig{RunID: "20260825-101501"}, "")
	st2, err := w2.Setup(t.Context())
	require.NoError(t, err)

	assert.NotEqual(t, st1.Principal.Email, st2.Principal.Email)
	assert.NotEqual(t, st1.Role.Ref, st2.Role.Ref)
}

func TestSetupThenCleanup_RoundTripLeavesNoResidue(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{ProjectsSpec: "proj-1,proj-2"}, "")

	st, err := w.Setup(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, f.accounts)
	require.NotEmpty(t, f.roles)
	require.NotZero(t, f.boundCount())

	// Cleanup with exactly the printed values, from a fresh workflow with no
	// setup state.
	cw := newTestWorkflow(t, f, RunConfig{}, "")
	err = cw.Cleanup(t.Context(), st.Principal.Email, st.Role.Ref, strings.Join(st.Projects, ","))
	require.NoError(t, err)

	assert.Empty(t, f.accounts)
	assert.Empty(t, f.roles)
	assert.Zero(t, f.boundCount())
}

func TestSetup_PanicStillRollsBack(t *testing.T) {
	f := newFakeProvider()
	w := newTestWorkflow(t, f, RunConfig{}, "")
	w.PropagationDelay = time.Nanosecond
	w.Sleep = func(_ time.Duration) { panic("boom") }

	require.Panics(t, func() { _, _ = w.Setup(t.Context()) })
	assert.Equal(t, 1, f.callCount("DeleteServiceAccount"))
}
