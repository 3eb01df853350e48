// Package filename classifies bare duplicity archive file names (no
// directory component) into their kind, timestamp, volume number, and
// flags, per the grammar in spec.md §4.1/§6.1.
package filename

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which of duplicity's backup-set families a file belongs
// to. Full is the only kind the distilled core originally covered;
// Incremental, FullSignatures and NewSignatures extend it per spec.md
// Open Question 4, mirroring the same naming convention.
type Kind int

const (
	Full Kind = iota
	Incremental
	FullSignatures
	NewSignatures
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case Incremental:
		return "incremental"
	case FullSignatures:
		return "full-signatures"
	case NewSignatures:
		return "new-signatures"
	default:
		return "unknown"
	}
}

// FileName is the result of classifying one bare archive file name.
type FileName struct {
	Kind Kind

	// Manifest is true for a manifest file and for a (single-file)
	// signature archive, false for a data volume. Manifest implies
	// VolumeNumber == 0.
	Manifest bool

	// VolumeNumber is meaningful iff Manifest is false.
	VolumeNumber int

	// Time is this set's own timestamp, normalised lowercase.
	Time string

	// PreviousTime is the anchor timestamp an Incremental or NewSignatures
	// set extends. Empty for Full and FullSignatures.
	PreviousTime string

	Compressed bool
	Encrypted  bool
	Partial    bool

	// Name is the original (non-lowercased) file name this was parsed from.
	Name string
}

// partial group indices vary per pattern below, so each regexp names its own
// "partial" capture group and we look it up by name rather than position.

var (
	fullVolRe       = regexp.MustCompile(`^duplicity-full\.(?P<time>.*?)\.vol(?P<num>[0-9]+)\.difftar(?P<partial>(\.part))?($|\.)`)
	fullManifestRe  = regexp.MustCompile(`^duplicity-full\.(?P<time>.*?)\.manifest(?P<partial>(\.part))?($|\.)`)
	incVolRe        = regexp.MustCompile(`^duplicity-inc\.(?P<from>.*?)\.to\.(?P<time>.*?)\.vol(?P<num>[0-9]+)\.difftar(?P<partial>(\.part))?($|\.)`)
	incManifestRe   = regexp.MustCompile(`^duplicity-inc\.(?P<from>.*?)\.to\.(?P<time>.*?)\.manifest(?P<partial>(\.part))?($|\.)`)
	newSigRe        = regexp.MustCompile(`^duplicity-new-signatures\.(?P<from>.*?)\.to\.(?P<time>.*?)\.sigtar(?P<partial>(\.part))?($|\.)`)
	fullSigRe       = regexp.MustCompile(`^duplicity-full-signatures\.(?P<time>.*?)\.sigtar(?P<partial>(\.part))?($|\.)`)
)

// Classify parses a single bare file name. It returns (FileName{}, false) if
// name does not match any recognised duplicity pattern.
func Classify(name string) (FileName, bool) {
	lower := strings.ToLower(name)

	fn, ok := match(lower)
	if !ok {
		return FileName{}, false
	}

	fn.Name = name
	fn.Compressed = hasSuffix(lower, ".gz", ".z")
	fn.Encrypted = hasSuffix(lower, ".gpg", ".g")
	return fn, true
}

func match(lower string) (FileName, bool) {
	if m, ok := namedMatch(fullVolRe, lower); ok {
		num, err := strconv.Atoi(m["num"])
		if err != nil {
			return FileName{}, false
		}
		return FileName{
			Kind:         Full,
			Manifest:     false,
			VolumeNumber: num,
			Time:         m["time"],
			Partial:      m["partial"] != "",
		}, true
	}

	if m, ok := namedMatch(fullManifestRe, lower); ok {
		return FileName{
			Kind:     Full,
			Manifest: true,
			Time:     m["time"],
			Partial:  m["partial"] != "",
		}, true
	}

	if m, ok := namedMatch(incVolRe, lower); ok {
		num, err := strconv.Atoi(m["num"])
		if err != nil {
			return FileName{}, false
		}
		return FileName{
			Kind:         Incremental,
			Manifest:     false,
			VolumeNumber: num,
			Time:         m["time"],
			PreviousTime: m["from"],
			Partial:      m["partial"] != "",
		}, true
	}

	if m, ok := namedMatch(incManifestRe, lower); ok {
		return FileName{
			Kind:         Incremental,
			Manifest:     true,
			Time:         m["time"],
			PreviousTime: m["from"],
			Partial:      m["partial"] != "",
		}, true
	}

	if m, ok := namedMatch(newSigRe, lower); ok {
		return FileName{
			Kind:         NewSignatures,
			Manifest:     true,
			Time:         m["time"],
			PreviousTime: m["from"],
			Partial:      m["partial"] != "",
		}, true
	}

	if m, ok := namedMatch(fullSigRe, lower); ok {
		return FileName{
			Kind:     FullSignatures,
			Manifest: true,
			Time:     m["time"],
			Partial:  m["partial"] != "",
		}, true
	}

	return FileName{}, false
}

// namedMatch runs re against s and returns its named capture groups, or
// false if s doesn't match at all.
func namedMatch(re *regexp.Regexp, s string) (map[string]string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	groups := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = m[i]
		}
	}
	return groups, true
}

func hasSuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
