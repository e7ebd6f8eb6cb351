package onboard

import (
	"context"
	"strings"

	"github.com/kartallu/connector/internal/constants"
	apperrors "github.com/kartallu/connector/internal/errors"
	"github.com/kartallu/connector/internal/gcp"
)

// ResolveProjects turns the operator's target-project specification into a
// concrete project list. Three forms are accepted: empty (the home project),
// the "all" keyword (every active project visible to the caller, resolved
// live), or an explicit comma-separated list.
func ResolveProjects(ctx context.Context, client gcp.ProjectsClient, spec, defaultProject string) ([]string, error) {
	spec = strings.TrimSpace(spec)

	switch spec {
	case "", defaultProject:
		if defaultProject == "" {
			return nil, apperrors.ErrInvalidConfig("no target projects and no default project configured", nil)
		}
		return []string{defaultProject}, nil
	case constants.AllProjectsKeyword:
		projects, err := client.SearchProjects(ctx)
		if err != nil {
			return nil, apperrors.ErrProviderCall("failed to enumerate visible projects", err)
		}
		if len(projects) == 0 {
			return nil, apperrors.ErrInvalidConfig("no projects visible to the current credentials", nil)
		}
		return projects, nil
	}

	var projects []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(spec, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !seen[p] {
			seen[p] = true
			projects = append(projects, p)
		}
	}
	if len(projects) == 0 {
		return nil, apperrors.ErrInvalidConfig("target project list is empty", nil)
	}
	return projects, nil
}
