package domain

import "time"

// ResourceKind names a class of provider resources the gateway can list.
type ResourceKind string

const (
	ResourceVolume              ResourceKind = "volume"
	ResourceAddress             ResourceKind = "address"
	ResourceNATGateway          ResourceKind = "nat_gateway"
	ResourceInstance            ResourceKind = "instance"
	ResourceSecurityGroup       ResourceKind = "security_group"
	ResourceDBInstance          ResourceKind = "db_instance"
	ResourceBucket              ResourceKind = "bucket"
	ResourceAccessKey           ResourceKind = "access_key"
	ResourceFunction            ResourceKind = "function"
	ResourceVPC                 ResourceKind = "vpc"
	ResourceLoadBalancer        ResourceKind = "load_balancer"
	ResourceCapacityReservation ResourceKind = "capacity_reservation"
	ResourceHealthEvent         ResourceKind = "health_event"
	ResourceAdvisorCheck        ResourceKind = "advisor_check"
	ResourceServiceQuota        ResourceKind = "service_quota"
)

// Resource is the provider-neutral view of one cloud resource. Skills work
// exclusively on these records; provider API shapes stay behind the gateway.
type Resource struct {
	ID        string
	Kind      ResourceKind
	Region    string
	State     string
	CreatedAt time.Time
	Tags      map[string]string
	// Attrs carries kind-specific detail, e.g. "attachment_count" for
	// volumes, "engine"/"engine_version" for database instances,
	// "runtime" for functions, "open_ports" for security groups.
	Attrs map[string]string
}

// UsagePoint is one day of spend in the cost/usage series.
type UsagePoint struct {
	Date   time.Time
	Amount float64
}
