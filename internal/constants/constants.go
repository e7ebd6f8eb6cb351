// Package constants defines global constants used throughout the connector
// onboarding tool: naming prefixes, provider timeouts, and version information.
package constants

import "time"

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of the connector CLI.
func GetVersion() *string {
	return &version
}

// ProjectName is the name of the CLI tool.
const ProjectName = "connector"

// ConfigDirName is the name of the configuration directory in the user's home directory.
const ConfigDirName = "." + ProjectName

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = "config.yaml"

// ResourcePrefix is prepended to every resource name this tool creates, so
// that provisioned service accounts and roles are recognizable and safe to
// clean up in bulk.
const ResourcePrefix = "connector"

// AllProjectsKeyword is the target-project value meaning "every project
// visible to the caller's credentials", resolved at run time.
const AllProjectsKeyword = "all"

// ServiceAccountTimeout bounds individual service account API calls.
const ServiceAccountTimeout = 30 * time.Second

// RoleTimeout bounds custom role create/delete calls.
const RoleTimeout = 30 * time.Second

// IAMBindingTimeout bounds the get/set IAM policy pair for one project.
const IAMBindingTimeout = 60 * time.Second

// ProjectSearchTimeout bounds the wildcard project enumeration.
const ProjectSearchTimeout = 2 * time.Minute

// KeyPropagationDelay is the fixed wait between service account creation and
// key issuance. Newly created accounts are eventually consistent; issuing a
// key immediately after creation intermittently returns 404.
const KeyPropagationDelay = 10 * time.Second

// RunIDLayout formats the run timestamp used to derive unique default names
// and the credential file name.
const RunIDLayout = "20060102-150405"
