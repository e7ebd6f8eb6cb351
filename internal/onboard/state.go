// Package onboard implements the connector onboarding workflows: provisioning
// of the service account, custom role, and project bindings, and their
// best-effort reversal.
package onboard

import "fmt"

// Origin records how the principal entered the run.
type Origin string

const (
	// OriginCreated means this run created the service account and rollback
	// owns its deletion.
	OriginCreated Origin = "created"
	// OriginReused means the operator supplied an existing service account;
	// automatic rollback must not delete it.
	OriginReused Origin = "reused"
)

// Principal is the service account identity being onboarded.
type Principal struct {
	Email  string
	Origin Origin
	// KeyFile is the local path of the issued credential, set only after a
	// key has been written.
	KeyFile string
}

// Member returns the IAM policy member string for the principal.
func (p Principal) Member() string {
	return "serviceAccount:" + p.Email
}

// Scope is the level at which the custom role is defined. Exactly one of
// Organization or Project is set; the decision is made once per run and never
// mixed.
type Scope struct {
	Organization string
	Project      string
}

// ResolveScope picks the role scope: organization when an org ID is present,
// the home project otherwise.
func ResolveScope(orgID, project string) Scope {
	if orgID != "" {
		return Scope{Organization: orgID}
	}
	return Scope{Project: project}
}

// Parent returns the resource parent for role creation.
func (s Scope) Parent() string {
	if s.Organization != "" {
		return "organizations/" + s.Organization
	}
	return "projects/" + s.Project
}

// RoleRef returns the scope-qualified reference for a role ID.
func (s Scope) RoleRef(roleID string) string {
	return s.Parent() + "/roles/" + roleID
}

// String renders the scope for operator display.
func (s Scope) String() string {
	if s.Organization != "" {
		return fmt.Sprintf("organization %s", s.Organization)
	}
	return fmt.Sprintf("project %s", s.Project)
}

// CustomRole is the role materialized from the embedded permission set.
type CustomRole struct {
	ID    string
	Scope Scope
	// Ref is the scope-qualified reference returned by the provider, set only
	// after creation succeeds.
	Ref string
}

// State is the mutable run state threaded through one invocation. It
// accumulates what has been provisioned so the rollback guard knows what to
// unwind. Projects always holds the originally intended target list, not the
// successfully bound subset: unbinding an absent binding is a no-op, while
// forgetting a bound project would leak a grant.
type State struct {
	Principal Principal
	Role      CustomRole
	Projects  []string
	// RollbackArmed is set once remote state exists and cleared immediately
	// before successful termination.
	RollbackArmed bool
}
