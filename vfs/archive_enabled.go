/*
 *  MIT License
 *
 *  Copyright (c) 2020 Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package vfs

import (
	"io"
	"sync"
	"time"

	"github.com/nabbar/vfsarc/archive/compress"
	"github.com/nabbar/vfsarc/archtree"
	"github.com/sirupsen/logrus"

	liberr "github.com/nabbar/vfsarc/errors"
)

type archiveState uint8

const (
	stateUnchecked archiveState = iota
	stateArchive
	statePlain
)

// revalidateInterval bounds how often ensureParsed re-stats the delegate to
// detect a replaced archive file underneath an already-parsed tree.
const revalidateInterval = 10 * time.Millisecond

// DefaultMaxArchiveDepth caps how many nested ArchiveEnabledBacking layers
// may stack before further archive detection is skipped outright.
const DefaultMaxArchiveDepth = 8

// ArchiveEnabledBacking decorates any other FileBacking, opportunistically
// exposing recognized archive files (ZIP/GZIP/TAR) as directories. See
// archtree for the format parsers it drives.
type ArchiveEnabledBacking struct {
	delegate FileBacking
	depth    int
	log      logrus.FieldLogger

	mu        sync.Mutex
	state     archiveState
	root      archtree.Entry
	parsedAt  time.Time
	delegMTime int64
	lastCheck time.Time

	node archtree.Entry
}

// NewArchiveEnabled wraps delegate at stacking depth 0. Use ChildNamed to
// obtain nested backings, which track their own depth.
func NewArchiveEnabled(delegate FileBacking, log logrus.FieldLogger) *ArchiveEnabledBacking {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ArchiveEnabledBacking{delegate: delegate, log: log}
}

func (a *ArchiveEnabledBacking) ensureParsed() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == statePlain {
		return
	}
	if a.state == stateArchive {
		if time.Since(a.lastCheck) < revalidateInterval {
			return
		}
		a.lastCheck = time.Now()
		cur := a.delegate.Stat().MTime
		if cur == a.delgMTimeSafe() {
			return
		}
		a.log.WithField("path", a.delegate.Path()).Debug("archtree: delegate mtime changed, invalidating archive tree")
		a.state = stateUnchecked
		a.root = nil
	}

	if a.depth >= DefaultMaxArchiveDepth {
		a.state = statePlain
		return
	}

	st := a.delegate.Stat()
	if st.Directory || !st.Exists {
		a.state = statePlain
		return
	}

	prefix, ok := a.readPrefix(512)
	if !ok {
		a.state = statePlain
		return
	}

	f, ok := archtree.Detect(prefix)
	if !ok {
		if alg := detectCompressed(prefix); !alg.IsNone() {
			a.log.WithFields(logrus.Fields{"path": a.delegate.Path(), "codec": alg.String()}).
				Debug("archtree: payload is compressed but not a recognized container, treating as plain")
		} else {
			a.log.WithField("path", a.delegate.Path()).Debug("archtree: no format probe matched, treating as plain")
		}
		a.state = statePlain
		return
	}

	root, perr := a.parseWith(f, st)
	if perr != nil {
		a.log.WithFields(logrus.Fields{"path": a.delegate.Path(), "format": f.Name()}).
			Debug("archtree: format probe matched but structural parse failed, treating as plain")
		a.state = statePlain
		return
	}

	a.log.WithFields(logrus.Fields{"path": a.delegate.Path(), "format": f.Name()}).Debug("archtree: parsed archive tree")
	a.root = root
	a.state = stateArchive
	a.parsedAt = time.Now()
	a.delgMTimeSet(st.MTime)
}

// readPrefix reads up to n bytes from the start of the delegate, just enough
// for archtree.Detect's magic-byte probe. It never reads the whole file.
func (a *ArchiveEnabledBacking) readPrefix(n int) ([]byte, bool) {
	rc, err := a.delegate.Open(0, nil)
	if err != nil || rc == nil {
		return nil, false
	}
	defer func() { _ = rc.Close() }()

	buf := make([]byte, n)
	read, rerr := io.ReadFull(rc, buf)
	if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
		return nil, false
	}
	return buf[:read], true
}

// parseWith drives f against the delegate. Formats implementing
// archtree.SeekableFormat (ZIP) are parsed with bounded reads through
// backingReaderAt, touching only the EOCD/central-directory window rather
// than the whole container; every other format falls back to the bounded
// in-memory read this core always supported.
func (a *ArchiveEnabledBacking) parseWith(f archtree.Format, st Stat) (archtree.Entry, liberr.Error) {
	if sf, ok := f.(archtree.SeekableFormat); ok && st.Length > 0 {
		return sf.ParseAt(backingReaderAt{b: a.delegate}, st.Length, a.delegate.Name())
	}

	rc, err := a.delegate.Open(0, nil)
	if err != nil || rc == nil {
		return nil, ErrUnsupported.Error()
	}
	defer func() { _ = rc.Close() }()

	const maxProbe = 64 << 20
	data, _ := io.ReadAll(io.LimitReader(rc, maxProbe))
	return f.Parse(data, a.delegate.Name())
}

// backingReaderAt adapts any FileBacking into an io.ReaderAt by way of its
// own Open(startOffset) primitive — every backing (native, URL, combined,
// archive-interior) already supports opening at an arbitrary offset, so no
// backing-specific seek support is required for callers that only need
// bounded random reads, such as ZipFormat.ParseAt.
type backingReaderAt struct {
	b FileBacking
}

func (r backingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	rc, err := r.b.Open(off, nil)
	if err != nil {
		return 0, err
	}
	if rc == nil {
		return 0, io.EOF
	}
	defer func() { _ = rc.Close() }()
	return io.ReadFull(rc, p)
}

// detectCompressed reports which of the pack's non-containerized codecs a
// prefix matches (bzip2, lz4, xz; gzip is always resolved earlier by
// archtree since it is a recognized container too). It exists only to give
// the debug log a name for "compressed, but nothing this core can open as a
// directory" payloads; it never produces an archtree.Entry.
func detectCompressed(prefix []byte) compress.Algorithm {
	for _, alg := range []compress.Algorithm{compress.Bzip2, compress.LZ4, compress.XZ} {
		if alg.DetectHeader(prefix) {
			return alg
		}
	}
	return compress.None
}

func (a *ArchiveEnabledBacking) delgMTimeSafe() int64 {
	return a.delegMTime
}

func (a *ArchiveEnabledBacking) delgMTimeSet(v int64) {
	a.delegMTime = v
}

func (a *ArchiveEnabledBacking) archiveRoot() (archtree.Entry, bool) {
	a.ensureParsed()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateArchive {
		return nil, false
	}
	if a.node != nil {
		return a.node, true
	}
	return a.root, true
}

func (a *ArchiveEnabledBacking) Name() string { return a.delegate.Name() }
func (a *ArchiveEnabledBacking) Path() string { return a.delegate.Path() }

func (a *ArchiveEnabledBacking) Stat() Stat {
	if root, ok := a.archiveRoot(); ok {
		s := a.delegate.Stat()
		s.Origin = OriginArchiveEnabled
		if a.node != nil {
			s.Directory = root.IsDir()
			s.Length = root.Size()
		} else {
			s.Directory = true
		}
		return s
	}
	s := a.delegate.Stat()
	s.Origin = OriginArchiveEnabled
	return s
}

func (a *ArchiveEnabledBacking) Check() bool {
	return a.delegate.Check()
}

func (a *ArchiveEnabledBacking) List(onChild ListFunc, canceled CancelFunc) liberr.Error {
	if root, ok := a.archiveRoot(); ok {
		for _, c := range root.Children() {
			if canceled != nil && canceled() {
				return nil
			}
			if !onChild(a.childArchive(c)) {
				return nil
			}
		}
		return nil
	}
	return a.delegate.List(func(child FileBacking) bool {
		return onChild(NewArchiveEnabled(child, a.log).withDepth(a.depth + 1))
	}, canceled)
}

func (a *ArchiveEnabledBacking) withDepth(d int) *ArchiveEnabledBacking {
	a.depth = d
	return a
}

// childArchive returns the backing for one child of the currently parsed
// archive tree. A directory node stays inside the same parsed tree (its
// Children() are already known structure, nothing to re-probe). A file node
// is wrapped in a fresh ArchiveEnabledBacking over its own byte stream, one
// depth level deeper, so a container stored inside another container (a
// .zip entry that is itself a .zip) is detected the same way any other
// backing is: by probing, not by assumption.
func (a *ArchiveEnabledBacking) childArchive(node archtree.Entry) *ArchiveEnabledBacking {
	if node != nil && !node.IsDir() && a.depth+1 < DefaultMaxArchiveDepth {
		leaf := entryFileBacking{entry: node, path: ConcatPath(a.delegate.Path(), node.Name())}
		return NewArchiveEnabled(leaf, a.log).withDepth(a.depth + 1)
	}

	return &ArchiveEnabledBacking{
		delegate:   a.delegate,
		depth:      a.depth,
		log:        a.log,
		state:      stateArchive,
		root:       a.root,
		delegMTime: a.delegMTime,
		parsedAt:   a.parsedAt,
		lastCheck:  time.Now(),
		node:       node,
	}
}

func (a *ArchiveEnabledBacking) ChildNamed(name string) FileBacking {
	if root, ok := a.archiveRoot(); ok {
		for _, c := range root.Children() {
			if c.Name() == name {
				return a.childArchive(c)
			}
		}
		return a.childArchive(nil)
	}
	return NewArchiveEnabled(a.delegate.ChildNamed(name), a.log).withDepth(a.depth + 1)
}

// entryFileBacking presents one archive-entry leaf as an ordinary FileBacking,
// letting ArchiveEnabledBacking wrap it and re-probe its bytes for a nested
// container. entry is nil for a name that did not resolve to any child,
// mirroring the "backing for a path that does not exist" convention every
// other FileBacking variant follows for ChildNamed.
type entryFileBacking struct {
	entry archtree.Entry
	path  string
}

func (e entryFileBacking) Name() string {
	if e.entry == nil {
		if i := lastSlash(e.path); i >= 0 {
			return e.path[i+1:]
		}
		return e.path
	}
	return e.entry.Name()
}

func (e entryFileBacking) Path() string { return e.path }

func (e entryFileBacking) Stat() Stat {
	if e.entry == nil {
		return Stat{Origin: OriginArchiveEnabled}
	}
	return Stat{
		Exists:   true,
		Readable: true,
		MTime:    e.entry.ModTime().UnixMilli(),
		Length:   e.entry.Size(),
		Origin:   OriginArchiveEnabled,
	}
}

func (e entryFileBacking) Check() bool { return true }

func (e entryFileBacking) List(_ ListFunc, _ CancelFunc) liberr.Error {
	return ErrUnsupported.Error()
}

func (e entryFileBacking) ChildNamed(name string) FileBacking {
	return entryFileBacking{path: ConcatPath(e.path, name)}
}

func (e entryFileBacking) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	if e.entry == nil {
		return nil, ErrNotFound.Error()
	}
	if canceled != nil && canceled() {
		return nil, nil
	}
	return e.entry.Open(startOffset)
}

func (e entryFileBacking) Create(_ bool) liberr.Error            { return ErrUnsupported.Error() }
func (e entryFileBacking) Delete(_ *DeleteStats) liberr.Error    { return ErrUnsupported.Error() }
func (e entryFileBacking) Write() (io.WriteCloser, liberr.Error) { return nil, ErrUnsupported.Error() }
func (e entryFileBacking) SetLastModified(_ int64) bool          { return false }
func (e entryFileBacking) SetBool(_ string, _ bool, _ bool) bool { return false }
func (e entryFileBacking) Move(_ string) liberr.Error            { return ErrUnsupported.Error() }

func (e entryFileBacking) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(e, "", forEach, canceled)
}

func (e entryFileBacking) ToUrl() (string, liberr.Error) { return "", ErrUnsupported.Error() }

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func (a *ArchiveEnabledBacking) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	if a.node != nil {
		if a.node.IsDir() {
			return nil, ErrUnsupported.Error()
		}
		return a.node.Open(startOffset)
	}
	return a.delegate.Open(startOffset, canceled)
}

func (a *ArchiveEnabledBacking) Create(directory bool) liberr.Error {
	if a.node != nil {
		return ErrUnsupported.Error()
	}
	return a.delegate.Create(directory)
}

func (a *ArchiveEnabledBacking) Delete(results *DeleteStats) liberr.Error {
	if a.node != nil {
		return ErrUnsupported.Error()
	}
	return a.delegate.Delete(results)
}

func (a *ArchiveEnabledBacking) Write() (io.WriteCloser, liberr.Error) {
	if a.node != nil {
		return nil, ErrUnsupported.Error()
	}
	return a.delegate.Write()
}

func (a *ArchiveEnabledBacking) SetLastModified(ms int64) bool {
	if a.node != nil {
		return false
	}
	return a.delegate.SetLastModified(ms)
}

func (a *ArchiveEnabledBacking) SetBool(attr string, value bool, ownerOnly bool) bool {
	if a.node != nil {
		return false
	}
	return a.delegate.SetBool(attr, value, ownerOnly)
}

func (a *ArchiveEnabledBacking) Move(newPath string) liberr.Error {
	if a.node != nil {
		return ErrUnsupported.Error()
	}
	return a.delegate.Move(newPath)
}

func (a *ArchiveEnabledBacking) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(a, "", forEach, canceled)
}

func (a *ArchiveEnabledBacking) ToUrl() (string, liberr.Error) {
	return a.delegate.ToUrl()
}
