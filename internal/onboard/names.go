package onboard

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/kartallu/connector/internal/errors"
)

// Provider naming rules. Service account IDs and custom role IDs use
// different charsets: account IDs take hyphens but no underscores, role IDs
// take underscores and periods but no hyphens.
const (
	accountIDMinLen = 6
	accountIDMaxLen = 30
	roleIDMinLen    = 3
	roleIDMaxLen    = 64
)

var (
	accountIDPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)
	roleIDPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

	accountIDInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	roleIDInvalid    = regexp.MustCompile(`[^a-zA-Z0-9_.]`)
	dashRuns         = regexp.MustCompile(`-{2,}`)
)

// SanitizeAccountID normalizes an operator-supplied name into a valid service
// account ID: lowercased, disallowed characters (including underscores)
// mapped to hyphens, runs collapsed, edges trimmed, length clamped.
func SanitizeAccountID(name string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(name))
	id = accountIDInvalid.ReplaceAllString(id, "-")
	id = dashRuns.ReplaceAllString(id, "-")
	id = strings.Trim(id, "-")

	if id == "" {
		return "", apperrors.ErrInvalidInput("service account name is empty after normalization", nil)
	}
	if len(id) > accountIDMaxLen {
		id = strings.Trim(id[:accountIDMaxLen], "-")
	}
	if len(id) < accountIDMinLen {
		return "", apperrors.ErrInvalidInput(
			fmt.Sprintf("service account id %q is shorter than %d characters", id, accountIDMinLen), nil)
	}
	if !accountIDPattern.MatchString(id) {
		return "", apperrors.ErrInvalidInput(
			fmt.Sprintf("service account id %q must start with a letter", id), nil)
	}
	return id, nil
}

// SanitizeRoleID normalizes an operator-supplied name into a valid custom
// role ID: hyphens and other disallowed characters mapped to underscores.
func SanitizeRoleID(name string) (string, error) {
	id := strings.TrimSpace(name)
	id = roleIDInvalid.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")

	if err := ValidateRoleID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateRoleID checks a role ID against the provider charset and length
// rules without modifying it.
func ValidateRoleID(id string) error {
	if len(id) < roleIDMinLen || len(id) > roleIDMaxLen {
		return apperrors.ErrInvalidInput(
			fmt.Sprintf("role id %q must be between %d and %d characters", id, roleIDMinLen, roleIDMaxLen), nil)
	}
	if !roleIDPattern.MatchString(id) {
		return apperrors.ErrInvalidInput(
			fmt.Sprintf("role id %q may only contain letters, digits, underscores and periods", id), nil)
	}
	return nil
}

// DefaultAccountID derives the non-interactive service account ID from the
// run ID. Distinct run IDs yield non-colliding names.
func DefaultAccountID(runID string) string {
	return "connector-" + runID
}

// DefaultRoleID derives the non-interactive role ID from the run ID, mapped
// into the role charset.
func DefaultRoleID(runID string) string {
	return "connectorAccess_" + strings.ReplaceAll(runID, "-", "_")
}

// PrincipalEmail derives the canonical service account email from the
// account ID and owning project.
func PrincipalEmail(accountID, projectID string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)
}
