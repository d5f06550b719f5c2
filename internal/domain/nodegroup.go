package domain

// NodeGroup is the read model of a node group as served to clients. The
// instance type is attached from the catalog when InstanceName matches.
type NodeGroup struct {
	Name         string        `json:"name" yaml:"name"`
	InstanceName *string       `json:"instance_name,omitempty" yaml:"instance_name,omitempty"`
	MinSize      *int          `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	MaxSize      *int          `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	Ephemeral    *string       `json:"ephemeral,omitempty" yaml:"ephemeral,omitempty"`
	State        *string       `json:"state,omitempty" yaml:"state,omitempty"`
	InstanceType *InstanceType `json:"instance_type,omitempty" yaml:"instance_type,omitempty"`
}
