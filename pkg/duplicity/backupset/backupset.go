// Package backupset groups classified duplicity file names into ordered
// backup sets and chains them into full+incremental sequences, per
// spec.md §4.2.
package backupset

import (
	"sort"

	"github.com/bgrewell/dupkit/pkg/duplicity/filename"
	"github.com/bgrewell/dupkit/pkg/logging"
)

// Set is all files sharing the same (kind, time): one manifest plus N
// volume files.
type Set struct {
	Kind         filename.Kind
	Time         string
	PreviousTime string

	manifest     string
	hasManifest  bool
	manifestPart bool

	volumes map[int]string
	partial map[int]bool
}

func newSet(kind filename.Kind, time, prev string) *Set {
	return &Set{
		Kind:         kind,
		Time:         time,
		PreviousTime: prev,
		volumes:      make(map[int]string),
		partial:      make(map[int]bool),
	}
}

func (s *Set) add(fn filename.FileName) {
	if fn.Manifest {
		s.manifest = fn.Name
		s.hasManifest = true
		s.manifestPart = fn.Partial
		return
	}
	s.volumes[fn.VolumeNumber] = fn.Name
	s.partial[fn.VolumeNumber] = fn.Partial
}

// ManifestPath returns this set's manifest file name, if any was seen.
func (s *Set) ManifestPath() (string, bool) {
	return s.manifest, s.hasManifest
}

// VolumePath returns the file name holding volume n, if any.
func (s *Set) VolumePath(n int) (string, bool) {
	p, ok := s.volumes[n]
	return p, ok
}

// VolumeCount returns the number of distinct volume numbers seen in s.
func (s *Set) VolumeCount() int {
	return len(s.volumes)
}

// IsComplete reports whether s has a non-partial manifest and volume
// numbers forming a dense {1..N} range with no partial members.
func (s *Set) IsComplete() bool {
	if !s.hasManifest || s.manifestPart {
		return false
	}
	n := len(s.volumes)
	for i := 1; i <= n; i++ {
		path, ok := s.volumes[i]
		if !ok || path == "" {
			return false
		}
		if s.partial[i] {
			return false
		}
	}
	return true
}

// IsCompressed reports whether any member file of s is gzip-compressed.
// All members of a real duplicity set share this flag; it is tracked per
// file only because classification is per file name.
func (s *Set) IsCompressed() bool {
	return s.anyFlag(func(fn filename.FileName) bool { return fn.Compressed })
}

// IsEncrypted reports whether any member file of s is GPG-encrypted.
func (s *Set) IsEncrypted() bool {
	return s.anyFlag(func(fn filename.FileName) bool { return fn.Encrypted })
}

func (s *Set) anyFlag(pred func(filename.FileName) bool) bool {
	if s.hasManifest {
		if fn, ok := filename.Classify(s.manifest); ok && pred(fn) {
			return true
		}
	}
	for _, name := range s.volumes {
		if fn, ok := filename.Classify(name); ok && pred(fn) {
			return true
		}
	}
	return false
}

// Chain is an ordered sequence of Sets by Time, starting with a Full set.
type Chain struct {
	sets []*Set
}

// NthSet returns the set at index i (0 = full), or nil if out of range.
func (c *Chain) NthSet(i int) *Set {
	if i < 0 || i >= len(c.sets) {
		return nil
	}
	return c.sets[i]
}

// Len returns the number of sets in the chain.
func (c *Chain) Len() int {
	return len(c.sets)
}

// Build classifies names and groups them into ordered chains, each
// anchored on a Full set and extended by Incremental sets whose
// PreviousTime matches the running chain head's Time. Unclassified or
// unanchored names are silently dropped, per spec.md §4.2's "invalid names
// are silently ignored" and the Non-goal on restore-management semantics.
func Build(names []string, log *logging.Logger) []*Chain {
	if log == nil {
		log = logging.DefaultLogger()
	}

	fullSets := map[string]*Set{}
	incSets := map[string]*Set{}

	for _, name := range names {
		fn, ok := filename.Classify(name)
		if !ok {
			log.Trace("skipping unclassifiable file name", "name", name)
			continue
		}
		switch fn.Kind {
		case filename.Full:
			set := fullSets[fn.Time]
			if set == nil {
				set = newSet(filename.Full, fn.Time, "")
				fullSets[fn.Time] = set
			}
			set.add(fn)
		case filename.Incremental:
			key := fn.PreviousTime + "\x00" + fn.Time
			set := incSets[key]
			if set == nil {
				set = newSet(filename.Incremental, fn.Time, fn.PreviousTime)
				incSets[key] = set
			}
			set.add(fn)
		default:
			// Signature families are tracked by the caller as an opaque
			// entry-id/diff-type oracle (spec.md §1); the chain model here
			// only orders snapshot data.
			log.Trace("skipping signature-family file", "name", name, "kind", fn.Kind.String())
		}
	}

	fulls := make([]*Set, 0, len(fullSets))
	for _, s := range fullSets {
		fulls = append(fulls, s)
	}
	sort.Slice(fulls, func(i, j int) bool { return fulls[i].Time < fulls[j].Time })

	incs := make([]*Set, 0, len(incSets))
	for _, s := range incSets {
		incs = append(incs, s)
	}
	sort.Slice(incs, func(i, j int) bool { return incs[i].Time < incs[j].Time })

	chains := make([]*Chain, 0, len(fulls))
	for _, full := range fulls {
		chain := &Chain{sets: []*Set{full}}
		head := full.Time
		for {
			extended := false
			for _, inc := range incs {
				if inc.PreviousTime != head {
					continue
				}
				chain.sets = append(chain.sets, inc)
				head = inc.Time
				extended = true
			}
			if !extended {
				break
			}
		}
		chains = append(chains, chain)
	}
	return chains
}

// BuildSignatureSets classifies names and groups the FullSignatures/
// NewSignatures families into Sets, one per (kind, time). Signature
// semantics are opaque to this package (spec.md §4.7 treats the signature
// chain as an oracle the provider consults, not a structure this package
// interprets), so unlike Build this does no chain-linking: callers get the
// flat set list and decide how to use PreviousTime themselves.
func BuildSignatureSets(names []string, log *logging.Logger) []*Set {
	if log == nil {
		log = logging.DefaultLogger()
	}

	sets := map[string]*Set{}
	for _, name := range names {
		fn, ok := filename.Classify(name)
		if !ok {
			log.Trace("skipping unclassifiable file name", "name", name)
			continue
		}
		switch fn.Kind {
		case filename.FullSignatures, filename.NewSignatures:
			key := fn.Kind.String() + "\x00" + fn.PreviousTime + "\x00" + fn.Time
			set := sets[key]
			if set == nil {
				set = newSet(fn.Kind, fn.Time, fn.PreviousTime)
				sets[key] = set
			}
			set.add(fn)
		default:
			log.Trace("skipping non-signature file", "name", name, "kind", fn.Kind.String())
		}
	}

	out := make([]*Set, 0, len(sets))
	for _, s := range sets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
