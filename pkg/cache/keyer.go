package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys.
type Keyer interface {
	// OrderKey identifies a clustering result.
	OrderKey(profileHash, objectsHash string, opts OrderKeyOpts) string

	// ArtifactKey identifies a rendering of a clustering result.
	ArtifactKey(orderHash string, opts ArtifactKeyOpts) string
}

// OrderKeyOpts holds the options that change a clustering result.
type OrderKeyOpts struct {
	PageSize uint64 `json:"page_size"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Detailed  bool   `json:"detailed"`
	MinWeight uint64 `json:"min_weight"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// OrderKey returns "order:<hash>".
func (DefaultKeyer) OrderKey(profileHash, objectsHash string, opts OrderKeyOpts) string {
	return hashKey("order", profileHash, objectsHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>".
func (DefaultKeyer) ArtifactKey(orderHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), orderHash, opts)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 digest of data. Inputs are identified by the
// hash of their canonical encoding.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix + ":" + the hash of the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
