package dupkit

import (
	"io"

	"github.com/bgrewell/dupkit/pkg/blockid"
	"github.com/bgrewell/dupkit/pkg/blockstream"
	"github.com/bgrewell/dupkit/pkg/consts"
	"github.com/bgrewell/dupkit/pkg/duplicity/backupset"
	"github.com/bgrewell/dupkit/pkg/duplicity/manifest"
)

// Entry is a lazy, ordered byte stream over one backup entry's content,
// returned by Provider.Read. It is single-owner and must not be shared
// across goroutines while a read is in progress, per spec.md §5.
type Entry struct {
	provider *Provider
	id       blockid.EntryID
	manifest *manifest.Manifest
	set      *backupset.Set

	buf        []byte
	pos, avail int

	nextBlock int
	stream    *blockstream.Stream
}

func newEntry(p *Provider, id blockid.EntryID, m *manifest.Manifest, set *backupset.Set) *Entry {
	return &Entry{
		provider: p,
		id:       id,
		manifest: m,
		set:      set,
		buf:      make([]byte, consts.BlockSize),
	}
}

// Read implements io.Reader. It drains the entry's internal buffer first,
// then pulls further blocks via fillBlock as needed, per spec.md §4.7's
// algorithm.
func (e *Entry) Read(out []byte) (int, error) {
	if e.avail == 0 {
		if err := e.fillBlock(); err != nil {
			return 0, err
		}
		if e.avail == 0 {
			return 0, io.EOF
		}
	}
	n := copy(out, e.buf[e.pos:e.pos+e.avail])
	e.pos += n
	e.avail -= n
	return n, nil
}

// Peek returns the unread portion of the entry's internal buffer without
// consuming it; callers wanting zero-copy access to already-fetched bytes
// use this alongside Consume instead of Read.
func (e *Entry) Peek() []byte {
	return e.buf[e.pos : e.pos+e.avail]
}

// Consume advances past n bytes of the buffer returned by a prior Peek.
func (e *Entry) Consume(n int) {
	if n > e.avail {
		n = e.avail
	}
	e.pos += n
	e.avail -= n
}

// fillBlock implements spec.md §4.7's fill_block: consult the cache for the
// next block, falling back to the backing BlockStream on a miss, and cache
// what was freshly read.
func (e *Entry) fillBlock() error {
	for e.avail == 0 {
		id := blockid.BlockID{Entry: e.id, Block: e.nextBlock}

		if n, ok := e.provider.snapshotCache.Read(id, e.buf); ok {
			e.pos, e.avail = 0, n
			e.nextBlock++
			return nil
		}

		if e.stream == nil {
			e.stream = blockstream.New(blockstream.StreamSnapshot, e.provider.be, e.manifest, e.set, []byte(e.id.Path), e.provider.log)
		}
		if err := e.stream.SeekToBlock(e.nextBlock); err != nil {
			return err
		}
		n, err := e.stream.Read(e.buf)
		if err != nil && err != io.EOF {
			return err
		}
		if n > 0 {
			e.provider.snapshotCache.Write(id, e.buf[:n])
		}
		e.pos, e.avail = 0, n
		e.nextBlock++
		if e.avail > 0 || err == io.EOF {
			return nil
		}
	}
	return nil
}

// Close releases the Entry's owned BlockStream and its backend handle, per
// spec.md §5's deterministic-release requirement.
func (e *Entry) Close() error {
	if e.stream == nil {
		return nil
	}
	err := e.stream.Close()
	e.stream = nil
	return err
}
