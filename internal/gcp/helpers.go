package gcp

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func bindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

// removeBinding returns the bindings without member's grant of role. The
// input bindings are never mutated; a binding that loses a member is replaced
// by a copy so the caller's policy stays intact.
func removeBinding(bindings []*cloudresourcemanager.Binding, role, member string) []*cloudresourcemanager.Binding {
	var result []*cloudresourcemanager.Binding
	for _, b := range bindings {
		if b.Role != role || !slices.Contains(b.Members, member) {
			result = append(result, b)
			continue
		}
		var members []string
		for _, m := range b.Members {
			if m != member {
				members = append(members, m)
			}
		}
		if len(members) > 0 {
			pruned := *b
			pruned.Members = members
			result = append(result, &pruned)
		}
	}
	return result
}

// isNotFound handles both transports: the REST clients surface
// googleapi.Error, the gRPC resource manager client surfaces status errors.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return status.Code(err) == codes.NotFound
}
