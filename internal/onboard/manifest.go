package onboard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const manifestFilePermissions = 0o600

// Manifest captures the identifiers an operator needs to run cleanup later.
// Setup writes it next to the key file; `cleanup --manifest` reads it back.
// The printed onboarding block carries the same values, so the file is a
// convenience, not a requirement.
type Manifest struct {
	ServiceAccount string   `yaml:"service_account"`
	RoleID         string   `yaml:"role_id"`
	RoleRef        string   `yaml:"role_ref"`
	Organization   string   `yaml:"organization,omitempty"`
	Project        string   `yaml:"project,omitempty"`
	Projects       []string `yaml:"projects"`
}

// NewManifest builds a manifest from a completed setup state.
func NewManifest(st *State) *Manifest {
	return &Manifest{
		ServiceAccount: st.Principal.Email,
		RoleID:         st.Role.ID,
		RoleRef:        st.Role.Ref,
		Organization:   st.Role.Scope.Organization,
		Project:        st.Role.Scope.Project,
		Projects:       st.Projects,
	}
}

// Write serializes the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal cleanup manifest: %w", err)
	}
	if err := os.WriteFile(path, data, manifestFilePermissions); err != nil {
		return fmt.Errorf("write cleanup manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by a previous setup run.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cleanup manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse cleanup manifest: %w", err)
	}
	return &m, nil
}
