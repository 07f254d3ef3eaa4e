package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/callchain/pkg/cache"
	pkgio "github.com/matzehuels/callchain/pkg/io"
	"github.com/matzehuels/callchain/pkg/profile"
	"github.com/matzehuels/callchain/pkg/symtab"
)

// Inputs are the loaded inputs of a run together with their content hashes.
type Inputs struct {
	Table   *symtab.Table
	Profile *profile.Profile

	// ObjectsHash and ProfileHash key the clustering cache. They hash the
	// canonical encodings, so equivalent inputs share cache entries
	// regardless of formatting or file format.
	ObjectsHash string
	ProfileHash string
}

// NewInputs wraps an already loaded table and profile.
func NewInputs(tab *symtab.Table, p *profile.Profile) (*Inputs, error) {
	var objs, prof bytes.Buffer
	if err := pkgio.WriteObjects(tab, &objs); err != nil {
		return nil, fmt.Errorf("hash objects: %w", err)
	}
	if err := p.Write(&prof); err != nil {
		return nil, fmt.Errorf("hash profile: %w", err)
	}
	return &Inputs{
		Table:       tab,
		Profile:     p,
		ObjectsHash: cache.Hash(objs.Bytes()),
		ProfileHash: cache.Hash(prof.Bytes()),
	}, nil
}

// Load reads the object description and the profile shards named in opts.
func Load(ctx context.Context, opts Options) (*Inputs, error) {
	tab, err := pkgio.ImportObjects(opts.ObjectsPath)
	if err != nil {
		return nil, err
	}
	p, err := profile.LoadShards(ctx, opts.ProfilePaths)
	if err != nil {
		return nil, err
	}
	return NewInputs(tab, p)
}
