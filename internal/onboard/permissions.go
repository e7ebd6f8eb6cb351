package onboard

// Role metadata for the custom role created during onboarding.
const (
	RoleTitle       = "Connector Read Access"
	RoleDescription = "Read and list access for the security connector inventory collector"
)

// ConnectorPermissions is the fixed permission set granted to the connector.
// It is embedded in the tool and not configurable at runtime: the connector
// needs read/list visibility over compute, networking, storage, clusters and
// IAM metadata, and nothing else.
var ConnectorPermissions = []string{
	"compute.instances.get",
	"compute.instances.list",
	"compute.disks.get",
	"compute.disks.list",
	"compute.images.get",
	"compute.images.list",
	"compute.networks.get",
	"compute.networks.list",
	"compute.subnetworks.get",
	"compute.subnetworks.list",
	"compute.firewalls.get",
	"compute.firewalls.list",
	"compute.routes.get",
	"compute.routes.list",
	"compute.regions.list",
	"compute.zones.list",
	"compute.projects.get",
	"storage.buckets.get",
	"storage.buckets.list",
	"storage.buckets.getIamPolicy",
	"container.clusters.get",
	"container.clusters.list",
	"iam.roles.get",
	"iam.roles.list",
	"iam.serviceAccounts.get",
	"iam.serviceAccounts.list",
	"resourcemanager.projects.get",
}
