// Package manifest parses duplicity's line-oriented manifest sidecar files
// into a sorted, binary-searchable volume index, per spec.md §4.3/§4.4/§6.2.
package manifest

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/bgrewell/dupkit/pkg/duperrors"
	"github.com/bgrewell/dupkit/pkg/duplicity/rawpath"
	"github.com/bgrewell/dupkit/pkg/logging"
)

// PathBlock is a path and an optional block number within it. A missing
// block means "the beginning of this path" (for Start) or "the end of this
// path" (for End) within the volume.
type PathBlock struct {
	Path  rawpath.RawPath
	Block int
	// HasBlock is false when no block number followed the path word.
	HasBlock bool
}

// Volume is one manifest entry: the byte range [Start, End] it covers, in
// duplicity's path order, plus its recorded hash.
type Volume struct {
	Start    PathBlock
	End      PathBlock
	HashType string
	Hash     []byte
}

// Manifest is the parsed, immutable content of one manifest file.
type Manifest struct {
	Hostname  string
	LocalDir  rawpath.RawPath
	Volumes   []Volume // 1-based: Volumes[0] is volume 1
}

// ManifestChain indexes manifests by snapshot number: 0 is the full, 1..
// are incrementals.
type ManifestChain struct {
	manifests map[int]*Manifest
}

// NewChain builds an empty chain a caller populates with Set.
func NewChain() *ManifestChain {
	return &ManifestChain{manifests: make(map[int]*Manifest)}
}

// Set records the manifest for a snapshot number.
func (c *ManifestChain) Set(snapshot int, m *Manifest) {
	c.manifests[snapshot] = m
}

// Get returns the manifest for a snapshot number, if present.
func (c *ManifestChain) Get(snapshot int) (*Manifest, bool) {
	m, ok := c.manifests[snapshot]
	return m, ok
}

// FirstVolumeOfPath returns the smallest 1-based volume number whose
// [start, end] byte-range contains p in duplicity's raw byte path order,
// per spec.md §4.4.
func (m *Manifest) FirstVolumeOfPath(p []byte) (int, bool) {
	lo, hi := 0, len(m.Volumes)
	for lo < hi {
		mid := (lo + hi) / 2
		v := m.Volumes[mid]
		startCmp := cmpBytes(p, v.Start.Path.Bytes())
		switch {
		case startCmp < 0:
			hi = mid
		case cmpBytes(p, v.End.Path.Bytes()) > 0:
			lo = mid + 1
		default:
			if startCmp == 0 && v.Start.HasBlock && v.Start.Block > 0 {
				// this volume starts mid-path; an earlier volume holds the head
				hi = mid
				continue
			}
			return mid + 1, true
		}
	}
	return 0, false
}

func cmpBytes(a, b []byte) int {
	return rawpath.New(a).Compare(rawpath.New(b))
}

// Parse reads a manifest from r, per the grammar in spec.md §4.3.
func Parse(r io.Reader, opts ...Option) (*Manifest, error) {
	cfg := &config{log: logging.DefaultLogger()}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &parser{lr: newLineReader(r), log: cfg.log}
	return p.parse()
}

type parser struct {
	lr   *lineReader
	log  *logging.Logger
	line []byte
}

func (p *parser) parse() (*Manifest, error) {
	if err := p.requireLine(); err != nil {
		return nil, err
	}
	hostnameBytes, err := p.readParam("Hostname")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(hostnameBytes) {
		return nil, &duperrors.UTF8Error{Field: "Hostname", Err: fmt.Errorf("invalid UTF-8 bytes")}
	}
	hostname := string(hostnameBytes)

	if err := p.requireLine(); err != nil {
		return nil, err
	}
	localDirBytes, err := p.readParam("Localdir")
	if err != nil {
		return nil, err
	}

	m := &Manifest{Hostname: hostname, LocalDir: rawpath.New(localDirBytes)}

	for {
		ok, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			break // clean EOF: no more volumes
		}

		num, err := p.readVolumeHeader()
		if err != nil {
			return nil, err
		}
		if num != len(m.Volumes)+1 {
			return nil, &duperrors.OutOfOrderVolumeError{Got: num}
		}

		if err := p.requireLine(); err != nil {
			return nil, err
		}
		start, err := p.readPathBlock("StartingPath")
		if err != nil {
			return nil, err
		}

		if err := p.requireLine(); err != nil {
			return nil, err
		}
		end, err := p.readPathBlock("EndingPath")
		if err != nil {
			return nil, err
		}

		if err := p.requireLine(); err != nil {
			return nil, err
		}
		hashType, hash, err := p.readHash()
		if err != nil {
			return nil, err
		}

		m.Volumes = append(m.Volumes, Volume{
			Start:    start,
			End:      end,
			HashType: hashType,
			Hash:     hash,
		})
		p.log.Trace("parsed manifest volume", "number", num, "hashType", hashType)
	}

	return m, nil
}

// readLine loads the next line into p.line, reporting whether one was
// available.
func (p *parser) readLine() (bool, error) {
	line, ok, err := p.lr.readLine()
	if err != nil {
		return false, err
	}
	p.line = line
	return ok, nil
}

// requireLine loads the next line or fails with ErrUnexpectedEOF.
func (p *parser) requireLine() error {
	ok, err := p.readLine()
	if err != nil {
		return err
	}
	if !ok {
		return duperrors.ErrUnexpectedEOF
	}
	return nil
}

func (p *parser) readParam(keyword string) ([]byte, error) {
	ws := words(p.line)
	if len(ws) == 0 || string(ws[0]) != keyword {
		return nil, &duperrors.MissingKeywordError{Keyword: keyword}
	}
	if len(ws) < 2 {
		return []byte{}, nil
	}
	return unescape(ws[1]), nil
}

func (p *parser) readVolumeHeader() (int, error) {
	ws := words(p.line)
	if len(ws) == 0 || string(ws[0]) != "Volume" {
		return 0, &duperrors.MissingKeywordError{Keyword: "Volume"}
	}
	if len(ws) < 2 {
		return 0, &duperrors.ParseIntError{Field: "Volume", Err: fmt.Errorf("missing volume number")}
	}
	numStr := string(ws[1])
	if len(numStr) > 0 && numStr[len(numStr)-1] == ':' {
		numStr = numStr[:len(numStr)-1]
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, &duperrors.ParseIntError{Field: "Volume", Err: err}
	}
	return n, nil
}

func (p *parser) readPathBlock(keyword string) (PathBlock, error) {
	ws := words(p.line)
	if len(ws) == 0 || string(ws[0]) != keyword {
		return PathBlock{}, &duperrors.MissingKeywordError{Keyword: keyword}
	}
	if len(ws) < 2 {
		return PathBlock{}, &duperrors.MissingPathError{Keyword: keyword}
	}
	path := rawpath.New(unescape(ws[1]))
	if len(ws) < 3 {
		return PathBlock{Path: path}, nil
	}
	n, err := strconv.Atoi(string(ws[2]))
	if err != nil {
		return PathBlock{}, &duperrors.ParseIntError{Field: keyword + " block", Err: err}
	}
	return PathBlock{Path: path, Block: n, HasBlock: true}, nil
}

func (p *parser) readHash() (string, []byte, error) {
	ws := words(p.line)
	if len(ws) == 0 || string(ws[0]) != "Hash" {
		return "", nil, &duperrors.MissingKeywordError{Keyword: "Hash"}
	}
	if len(ws) < 2 {
		return "", nil, duperrors.ErrMissingHashType
	}
	hashType := string(unescape(ws[1]))
	if len(ws) < 3 {
		return "", nil, duperrors.ErrMissingHash
	}
	hexWord := unescape(ws[2])
	hash, err := hex.DecodeString(string(hexWord))
	if err != nil {
		return "", nil, &duperrors.InvalidHashError{Value: string(hexWord)}
	}
	return hashType, hash, nil
}
