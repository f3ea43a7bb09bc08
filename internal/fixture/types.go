// Package fixture provides the fixture data store that seedkit seeds
// populate.
//
// A [Store] holds generic [Record] values grouped by kind. Two
// implementations ship with the package: [MemStore] for unit tests and
// throwaway environments, and [PostgresStore] for development databases.
//
// All store operations are safe for concurrent use.
package fixture

import "time"

// Record is a single fixture row.
type Record struct {
	// ID is a unique identifier. Generated on insert when empty.
	ID string `yaml:"id" json:"id"`

	// Kind groups records; seeds use their entity type as the kind.
	Kind string `yaml:"kind" json:"kind"`

	// Name is a human-readable label.
	Name string `yaml:"name" json:"name"`

	// Attributes holds arbitrary key-value data.
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`

	// Tags are searchable labels.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// CreatedAt is set by the store on insert.
	CreatedAt time.Time `yaml:"-" json:"created_at"`
}

// ListOptions narrows the result set of [Store.List]. All non-zero fields
// are applied as AND conditions.
type ListOptions struct {
	// Kind restricts results to records of this kind.
	Kind string

	// Tags restricts results to records carrying all of these tags.
	Tags []string
}
