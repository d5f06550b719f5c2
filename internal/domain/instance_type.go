package domain

// DefaultInstanceFamily is used when the pricing entry carries no family.
const DefaultInstanceFamily = "Unknown"

// InstanceType describes a single instance type of the catalog.
type InstanceType struct {
	// Name is the unique key, e.g. "m5.large".
	Name string `json:"name" yaml:"name"`
	// Family groups related instance types, e.g. "General purpose".
	Family string `json:"family" yaml:"family"`
	// Memory in bytes.
	Memory int64 `json:"memory" yaml:"memory"`
	// VCPU is the number of virtual CPUs.
	VCPU int64 `json:"vcpu" yaml:"vcpu"`
	// GPU is the number of GPUs.
	GPU int64 `json:"gpu" yaml:"gpu"`
}

// Key returns the store key of the instance type.
func (t InstanceType) Key() string {
	return t.Name
}

// CatalogSnapshot is one parsed pricing catalog. It only lives for the
// duration of a refresh cycle.
type CatalogSnapshot struct {
	Version string
	Records []InstanceType
}

// Len returns the number of records in the snapshot.
func (s CatalogSnapshot) Len() int {
	return len(s.Records)
}
