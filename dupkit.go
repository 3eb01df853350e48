// Package dupkit is a read-side engine for duplicity incremental backup
// archives: given a Backend over a directory of duplicity's manifest and
// volume files, it builds the backup chain and manifest index once at open
// and then serves lazy, cached byte streams for individual entries.
package dupkit

import (
	"errors"
	"fmt"

	"github.com/bgrewell/dupkit/pkg/backend"
	"github.com/bgrewell/dupkit/pkg/blockid"
	"github.com/bgrewell/dupkit/pkg/cache"
	"github.com/bgrewell/dupkit/pkg/consts"
	"github.com/bgrewell/dupkit/pkg/duperrors"
	"github.com/bgrewell/dupkit/pkg/duplicity/backupset"
	"github.com/bgrewell/dupkit/pkg/duplicity/manifest"
	"github.com/bgrewell/dupkit/pkg/logging"
	"github.com/bgrewell/dupkit/pkg/option"
)

// Provider owns everything built once at open: the manifest index, the
// snapshot chain, the (opaque) signature sets, the backend, and the two
// BlockCaches shared across every Entry it serves, per spec.md §4.7.
type Provider struct {
	be       backend.Backend
	log      *logging.Logger
	manifests *manifest.ManifestChain

	snapshotChain *backupset.Chain
	signatureSets []*backupset.Set

	snapshotCache  *cache.Cache
	signatureCache *cache.Cache
}

// defaultTotalBlocks is used when WithTotalCacheBlocks is not given.
const defaultTotalBlocks = 256

// NewProvider lists the backend's files, builds the backup chain and
// manifest index, and returns a ready Provider. A Backend is required.
func NewProvider(opts ...option.ProviderOption) (*Provider, error) {
	cfg := &option.ProviderOptions{Logger: logging.DefaultLogger(), TotalBlocks: defaultTotalBlocks}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Backend == nil {
		return nil, errors.New("dupkit: NewProvider requires option.WithBackend")
	}

	names, err := cfg.Backend.ListFileNames()
	if err != nil {
		return nil, fmt.Errorf("listing backend files: %w", err)
	}

	chains := backupset.Build(names, cfg.Logger)
	if len(chains) == 0 {
		return nil, duperrors.NotFound("a full backup set")
	}
	chain := chains[0]

	manifests := manifest.NewChain()
	for i := 0; i < chain.Len(); i++ {
		set := chain.NthSet(i)
		mpath, ok := set.ManifestPath()
		if !ok {
			return nil, duperrors.NotFound(fmt.Sprintf("manifest file for snapshot %d", i))
		}
		rc, err := cfg.Backend.OpenFile(mpath)
		if err != nil {
			return nil, fmt.Errorf("opening manifest %q: %w", mpath, err)
		}
		m, err := manifest.Parse(rc, manifest.WithLogger(cfg.Logger))
		closeErr := rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing manifest %q: %w", mpath, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("closing manifest %q: %w", mpath, closeErr)
		}
		manifests.Set(i, m)
	}

	snapshotBlocks := roundShare(cfg.TotalBlocks, consts.SnapshotCacheShare)
	signatureBlocks := cfg.TotalBlocks - snapshotBlocks

	return &Provider{
		be:             cfg.Backend,
		log:            cfg.Logger,
		manifests:      manifests,
		snapshotChain:  chain,
		signatureSets:  backupset.BuildSignatureSets(names, cfg.Logger),
		snapshotCache:  cache.New(snapshotBlocks),
		signatureCache: cache.New(signatureBlocks),
	}, nil
}

// roundShare returns round(total * share).
func roundShare(total int, share float64) int {
	return int(float64(total)*share + 0.5)
}

// Read returns a lazy byte stream for id. The snapshot number in id selects
// both the manifest and the backup set within the chain built at open.
func (p *Provider) Read(id blockid.EntryID) (*Entry, error) {
	m, ok := p.manifests.Get(id.Snapshot)
	if !ok {
		return nil, duperrors.NotFound(fmt.Sprintf("manifest for snapshot %d", id.Snapshot))
	}
	set := p.snapshotChain.NthSet(id.Snapshot)
	if set == nil {
		return nil, duperrors.NotFound(fmt.Sprintf("backup set for snapshot %d", id.Snapshot))
	}
	if _, ok := m.FirstVolumeOfPath([]byte(id.Path)); !ok {
		return nil, duperrors.NotFound("path in manifest")
	}

	return newEntry(p, id, m, set), nil
}
