// Package gcp abstracts the Google Cloud IAM operations the onboarding
// workflows need behind narrow per-service interfaces, so the workflows can be
// exercised against fakes in tests.
package gcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/iterator"

	"github.com/kartallu/connector/internal/constants"
)

// ServiceAccount describes an existing service account, for operator display.
type ServiceAccount struct {
	Email       string
	DisplayName string
}

// IAMClient abstracts service account and custom role operations.
type IAMClient interface {
	CreateServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error)
	DeleteServiceAccount(ctx context.Context, projectID, accountEmail string) error
	ListServiceAccounts(ctx context.Context, projectID string) ([]ServiceAccount, error)
	// CreateServiceAccountKey returns the decoded JSON key material.
	CreateServiceAccountKey(ctx context.Context, projectID, accountEmail string) ([]byte, error)
	// CreateRole creates a custom role under parent ("projects/{id}" or
	// "organizations/{id}") and returns the scope-qualified role name.
	CreateRole(ctx context.Context, parent, roleID, title, description string, permissions []string) (string, error)
	// DeleteRole deletes a custom role by its scope-qualified name.
	DeleteRole(ctx context.Context, roleName string) error
}

// BindingClient abstracts project-level IAM policy bindings.
type BindingClient interface {
	AddBinding(ctx context.Context, projectID, member, role string) error
	RemoveBinding(ctx context.Context, projectID, member, role string) error
}

// ProjectsClient abstracts project enumeration for the "all projects" target.
type ProjectsClient interface {
	SearchProjects(ctx context.Context) ([]string, error)
}

// ServiceClients holds the provider clients used by the workflows.
type ServiceClients struct {
	IAM      IAMClient
	Bindings BindingClient
	Projects ProjectsClient
}

// NewServiceClients builds concrete clients backed by the Google Cloud APIs,
// using Application Default Credentials.
func NewServiceClients(ctx context.Context) (*ServiceClients, error) {
	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource manager service: %w", err)
	}

	projectsClient, err := resourcemanager.NewProjectsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create projects client: %w", err)
	}

	return &ServiceClients{
		IAM:      &defaultIAMClient{service: iamSvc},
		Bindings: &defaultBindingClient{service: rmSvc},
		Projects: &defaultProjectsClient{client: projectsClient},
	}, nil
}

// DefaultProject resolves the ambient project from Application Default
// Credentials. Returns empty string when the credentials carry no project.
func DefaultProject(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudresourcemanager.CloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("find default credentials: %w", err)
	}
	return creds.ProjectID, nil
}

type defaultIAMClient struct {
	service *iam.Service
}

func (c *defaultIAMClient) CreateServiceAccount(
	ctx context.Context,
	projectID, accountID, displayName string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}

	sa, err := c.service.Projects.ServiceAccounts.Create("projects/"+projectID, req).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("create service account", err)
	}
	return sa.Email, nil
}

func (c *defaultIAMClient) DeleteServiceAccount(ctx context.Context, projectID, accountEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	_, err := c.service.Projects.ServiceAccounts.Delete(name).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	return wrapError("delete service account", err)
}

func (c *defaultIAMClient) ListServiceAccounts(ctx context.Context, projectID string) ([]ServiceAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	var accounts []ServiceAccount
	err := c.service.Projects.ServiceAccounts.List("projects/"+projectID).
		Pages(ctx, func(resp *iam.ListServiceAccountsResponse) error {
			for _, sa := range resp.Accounts {
				accounts = append(accounts, ServiceAccount{
					Email:       sa.Email,
					DisplayName: sa.DisplayName,
				})
			}
			return nil
		})
	if err != nil {
		return nil, wrapError("list service accounts", err)
	}
	return accounts, nil
}

func (c *defaultIAMClient) CreateServiceAccountKey(ctx context.Context, projectID, accountEmail string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	key, err := c.service.Projects.ServiceAccounts.Keys.Create(name, &iam.CreateServiceAccountKeyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("create service account key", err)
	}

	material, err := base64.StdEncoding.DecodeString(key.PrivateKeyData)
	if err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}
	return material, nil
}

func (c *defaultIAMClient) CreateRole(
	ctx context.Context,
	parent, roleID, title, description string,
	permissions []string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RoleTimeout)
	defer cancel()

	req := &iam.CreateRoleRequest{
		RoleId: roleID,
		Role: &iam.Role{
			Title:               title,
			Description:         description,
			IncludedPermissions: permissions,
			Stage:               "GA",
		},
	}

	var role *iam.Role
	var err error
	if strings.HasPrefix(parent, "organizations/") {
		role, err = c.service.Organizations.Roles.Create(parent, req).Context(ctx).Do()
	} else {
		role, err = c.service.Projects.Roles.Create(parent, req).Context(ctx).Do()
	}
	if err != nil {
		return "", wrapError("create role", err)
	}
	return role.Name, nil
}

func (c *defaultIAMClient) DeleteRole(ctx context.Context, roleName string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RoleTimeout)
	defer cancel()

	var err error
	if strings.HasPrefix(roleName, "organizations/") {
		_, err = c.service.Organizations.Roles.Delete(roleName).Context(ctx).Do()
	} else {
		_, err = c.service.Projects.Roles.Delete(roleName).Context(ctx).Do()
	}
	if isNotFound(err) {
		return nil
	}
	return wrapError("delete role", err)
}

type defaultBindingClient struct {
	service *cloudresourcemanager.Service
}

func (c *defaultBindingClient) AddBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	policy, err := c.service.Projects.GetIamPolicy(projectID, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	if !bindingExists(policy.Bindings, role, member) {
		policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
			Role:    role,
			Members: []string{member},
		})
	}

	_, err = c.service.Projects.SetIamPolicy(
		projectID,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

func (c *defaultBindingClient) RemoveBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	policy, err := c.service.Projects.GetIamPolicy(projectID, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	// Decide before pruning: the pruned list keeps its length when other
	// members share the binding, so length is not a write signal.
	if !bindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = removeBinding(policy.Bindings, role, member)

	_, err = c.service.Projects.SetIamPolicy(
		projectID,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

type defaultProjectsClient struct {
	client *resourcemanager.ProjectsClient
}

func (c *defaultProjectsClient) SearchProjects(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ProjectSearchTimeout)
	defer cancel()

	var projectIDs []string
	it := c.client.SearchProjects(ctx, &resourcemanagerpb.SearchProjectsRequest{
		Query: "state:ACTIVE",
	})
	for {
		project, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapError("search projects", err)
		}
		projectIDs = append(projectIDs, project.GetProjectId())
	}
	return projectIDs, nil
}
