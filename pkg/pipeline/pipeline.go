// Package pipeline runs the load → cluster → place sequence shared by the
// CLI commands and the HTTP service.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the object description and merge the profile shards
//  2. Cluster: Run call-chain clustering to rank the sections
//  3. Place: Assign addresses to every section in rank order
//
// A fourth, optional stage renders the clustered graph with Graphviz.
// Clustering results and rendered artifacts are cached; loading and placement
// are cheap enough to redo.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ObjectsPath:  "objects.json",
//	    ProfilePaths: []string{"a.prof", "b.prof"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, id := range result.Cluster.Ordered() { ... }
//
// Run individual stages:
//
//	in, err := runner.Load(ctx, opts)
//	res, hit, err := runner.ClusterWithCacheInfo(ctx, in, opts)
//	placement, err := runner.Place(ctx, in, res, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/callchain/pkg/cache"
	"github.com/matzehuels/callchain/pkg/cluster"
	cerrors "github.com/matzehuels/callchain/pkg/errors"
	"github.com/matzehuels/callchain/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultPageSize is the cluster size cap in bytes.
	DefaultPageSize = uint64(4096)

	// DefaultImageBase is the address of the first output segment, matching
	// the usual 64-bit executable base.
	DefaultImageBase = uint64(0x100000000)

	// DefaultFormat is the default artifact format for graph rendering.
	DefaultFormat = FormatSVG
)

// Format constants for rendered artifacts.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
type Options struct {
	// Load options
	ObjectsPath  string   `json:"objects_path,omitempty"`
	ProfilePaths []string `json:"profile_paths,omitempty"`

	// Cluster options
	PageSize uint64 `json:"page_size,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Place options
	ImageBase  uint64 `json:"image_base,omitempty"`
	HeaderSize uint64 `json:"header_size,omitempty"`

	// Render options
	Format    string `json:"format,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
	MinWeight uint64 `json:"min_weight,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID uuid.UUID

	// Inputs are the loaded symbol table and profile.
	Inputs *Inputs

	// Cluster is the clustering result.
	Cluster cluster.Result

	// Placement holds the assigned section addresses.
	Placement layout.Placement

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the clustering result came from cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Sections    int
	Entries     int
	LoadTime    time.Duration
	ClusterTime time.Duration
	PlaceTime   time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an artifact format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForCluster(); err != nil {
		return err
	}
	o.SetPlaceDefaults()
	o.validated = true
	return nil
}

// ValidateForLoad checks that the input paths are present.
func (o *Options) ValidateForLoad() error {
	if o.ObjectsPath == "" {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "objects path is required")
	}
	if len(o.ProfilePaths) == 0 {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "at least one profile is required")
	}
	o.setLogger()
	return nil
}

// ValidateForCluster applies the page size default and validates it.
func (o *Options) ValidateForCluster() error {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	o.setLogger()
	return cerrors.ValidatePageSize(o.PageSize)
}

// SetPlaceDefaults sets default values for section placement.
func (o *Options) SetPlaceDefaults() {
	if o.ImageBase == 0 {
		o.ImageBase = DefaultImageBase
	}
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.setLogger()
	return ValidateFormat(o.Format)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// OrderKeyOpts returns cache key options for clustering.
func (o *Options) OrderKeyOpts() cache.OrderKeyOpts {
	return cache.OrderKeyOpts{PageSize: o.PageSize}
}

// ArtifactKeyOpts returns cache key options for rendering.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    o.Format,
		Detailed:  o.Detailed,
		MinWeight: o.MinWeight,
	}
}

// LayoutOptions returns the placement options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		ImageBase:  o.ImageBase,
		PageSize:   o.PageSize,
		HeaderSize: o.HeaderSize,
	}
}
