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

package sync

import (
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/nabbar/vfsarc/vfs"
	"github.com/sirupsen/logrus"

	liberr "github.com/nabbar/vfsarc/errors"
)

const transferBufferSize = 1 << 20

// Engine drives one synchronization run from an authority tree onto a
// mutable destination tree. CaseSensitive controls whether child names are
// compared case-sensitively during the merge-diff.
type Engine struct {
	CaseSensitive bool
	Policy        Policy
	Log           logrus.FieldLogger

	buf []byte
}

// NewEngine returns an Engine with DefaultPolicy and case-sensitive
// comparison.
func NewEngine() *Engine {
	return &Engine{CaseSensitive: true, Policy: DefaultPolicy, Log: logrus.StandardLogger()}
}

// Run synchronizes source onto dest, returning accumulated Stats. Each
// invocation is tagged with a fresh run id for log correlation.
func (e *Engine) Run(source, dest vfs.FileBacking, canceled vfs.CancelFunc) (Stats, liberr.Error) {
	if e.Policy == nil {
		e.Policy = DefaultPolicy
	}
	if e.Log == nil {
		e.Log = logrus.StandardLogger()
	}
	if e.buf == nil {
		e.buf = make([]byte, transferBufferSize)
	}

	runID := uuid.New().String()
	log := e.Log.WithField("sync_run", runID)
	log.WithField("path", dest.Path()).Debug("sync: run started")

	var stats Stats
	err := e.syncPair(source, dest, &stats, canceled, log)

	log.WithField("summary", stats.String()).Debug("sync: run finished")
	return stats, err
}

func (e *Engine) syncPair(source, dest vfs.FileBacking, stats *Stats, canceled vfs.CancelFunc, log logrus.FieldLogger) liberr.Error {
	if canceled != nil && canceled() {
		return nil
	}

	if dest.Stat().Symbolic {
		return nil
	}

	sStat := source.Stat()

	if sStat.Directory {
		return e.syncDirectory(source, dest, stats, canceled, log)
	}
	return e.syncFile(source, dest, stats, log)
}

func (e *Engine) syncDirectory(source, dest vfs.FileBacking, stats *Stats, canceled vfs.CancelFunc, log logrus.FieldLogger) liberr.Error {
	dStat := dest.Stat()
	if dStat.Exists && !dStat.Directory {
		if err := dest.Delete(nil); err != nil {
			return ErrIO.Error(err)
		}
		stats.FilesDeleted++
		dStat = dest.Stat()
	}
	if !dStat.Exists {
		if err := dest.Create(true); err != nil {
			return ErrIO.Error(err)
		}
		stats.DirsAdded++
	}

	destChildren, err := listChildren(dest, canceled)
	if err != nil {
		return err
	}
	sourceChildren, err := listChildren(source, canceled)
	if err != nil {
		return err
	}

	pairs := mergeDiff(sourceChildren, destChildren, e.CaseSensitive)

	for _, p := range pairs {
		if canceled != nil && canceled() {
			return nil
		}

		action := e.Policy(p.source, p.dest)
		switch action {
		case ActionIgnore:
			continue
		case ActionDelete:
			if p.dest == nil {
				continue
			}
			wasDir := p.dest.Stat().Directory
			if err := p.dest.Delete(nil); err != nil {
				return ErrIO.Error(err)
			}
			if wasDir {
				stats.DirsDeleted++
			} else {
				stats.FilesDeleted++
			}
		case ActionCopy:
			if p.source == nil {
				continue
			}
			destChild := p.dest
			if destChild == nil {
				destChild = dest.ChildNamed(p.name)
			}
			if err := e.syncPair(p.source, destChild, stats, canceled, log); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) syncFile(source, dest vfs.FileBacking, stats *Stats, log logrus.FieldLogger) liberr.Error {
	sStat := source.Stat()
	dStat := dest.Stat()

	needsCopy := !dStat.Exists || dStat.Directory || dStat.MTime != sStat.MTime

	if needsCopy {
		if dStat.Exists && dStat.Directory {
			if err := dest.Delete(nil); err != nil {
				return ErrIO.Error(err)
			}
		}

		r, err := source.Open(0, nil)
		if err != nil {
			return ErrIO.Error(err)
		}
		defer func() { _ = r.Close() }()

		if err := dest.Create(false); err != nil {
			return ErrIO.Error(err)
		}

		w, werr := dest.Write()
		if werr != nil {
			return ErrIO.Error(werr)
		}

		n, cerr := io.CopyBuffer(w, r, e.buf)
		closeErr := w.Close()
		if cerr != nil {
			return ErrIO.Error(cerr)
		}
		if closeErr != nil {
			return ErrIO.Error(closeErr)
		}

		stats.BytesCopied += n
		stats.FilesUpdated++

		if !dest.SetLastModified(sStat.MTime) {
			stats.MTimeFailures++
			log.WithField("path", dest.Path()).Debug("sync: failed to set destination mtime")
		}
	}

	return nil
}

func listChildren(b vfs.FileBacking, canceled vfs.CancelFunc) ([]vfs.FileBacking, liberr.Error) {
	var out []vfs.FileBacking
	err := b.List(func(child vfs.FileBacking) bool {
		out = append(out, child)
		return true
	}, canceled)
	return out, err
}

type pair struct {
	name   string
	source vfs.FileBacking
	dest   vfs.FileBacking
}

// mergeDiff emits one pair per distinct child name, in the destination's
// listing order, then appends any source-only names not present in the
// destination at the end (in source order) — one pass over the destination
// that looks each name up in an index of the source, plus a single trailing
// pass over the source for source-only additions.
func mergeDiff(source, dest []vfs.FileBacking, caseSensitive bool) []pair {
	key := func(name string) string {
		if caseSensitive {
			return name
		}
		return strings.ToLower(name)
	}

	sourceIdx := make(map[string]vfs.FileBacking, len(source))
	for _, s := range source {
		sourceIdx[key(s.Name())] = s
	}

	seen := make(map[string]bool, len(dest))
	pairs := make([]pair, 0, len(source)+len(dest))

	for _, d := range dest {
		k := key(d.Name())
		seen[k] = true
		pairs = append(pairs, pair{name: d.Name(), source: sourceIdx[k], dest: d})
	}

	for _, s := range source {
		k := key(s.Name())
		if seen[k] {
			continue
		}
		pairs = append(pairs, pair{name: s.Name(), source: s, dest: nil})
	}

	return pairs
}
