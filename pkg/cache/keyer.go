package cache

import "github.com/suratkita/suratkita/pkg/paginate"

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Strategy string            `json:"strategy"`
	Geometry paginate.Geometry `json:"geometry"`
	Capacity map[string]int    `json:"capacity,omitempty"`
	Overflow string            `json:"overflow"`
	Format   string            `json:"format"`
	Version  string            `json:"version,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key of the artifact rendered from content
	// with the given hash.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return digestKey("artifact", contentHash, opts)
}
