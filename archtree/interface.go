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

package archtree

import (
	"io"
	"sort"
	"time"
	"unicode"

	liberr "github.com/nabbar/vfsarc/errors"
)

// Entry is one node of a parsed archive tree. Open supports random access:
// startOffset seeks into the entry's own decoded byte stream before handing
// back the reader, so callers resuming a partial read never re-consume bytes
// they already have.
type Entry interface {
	Name() string
	IsDir() bool
	Size() int64
	ModTime() time.Time
	Children() []Entry
	Open(startOffset int64) (io.ReadCloser, liberr.Error)
}

// Format recognizes and parses one archive container. MayBeArchive is a
// cheap magic-byte probe that must not consume data beyond prefix; Parse
// does the full structural pass and may return ErrMalformed/ErrNotArchive.
// archiveName is the backing's own file name, used as a fallback title for
// formats (GZIP) whose wire format can omit an internal name.
type Format interface {
	Name() string
	MayBeArchive(prefix []byte) bool
	Parse(data []byte, archiveName string) (Entry, liberr.Error)
}

// SeekableFormat is implemented by formats that can locate their directory
// structure with bounded reads against a random-access source, without
// pulling the whole container into memory first. size is the container's
// total length, used to anchor tail-relative offsets (ZIP's EOCD record).
type SeekableFormat interface {
	Format
	ParseAt(r io.ReaderAt, size int64, archiveName string) (Entry, liberr.Error)
}

// Registry is the ordered set of formats probed by vfs.ArchiveEnabledBacking.
var Registry = []Format{
	ZipFormat{},
	GzipFormat{},
	TarFormat{},
}

// Detect runs every registered format's MayBeArchive probe against prefix and
// returns the first match, mirroring nabbar-golib's archive.Detect
// header-sniff-then-dispatch structure.
func Detect(prefix []byte) (Format, bool) {
	for _, f := range Registry {
		if f.MayBeArchive(prefix) {
			return f, true
		}
	}
	return nil, false
}

// Parse runs f against the full archive content. archiveName feeds formats
// that need the container's own file name as a title fallback.
func Parse(f Format, data []byte, archiveName string) (Entry, liberr.Error) {
	return f.Parse(data, archiveName)
}

// sortEntries orders children the way nabbar-golib's directory listings do:
// lexical, but comparing embedded runs of digits numerically so "file2" sorts
// before "file10".
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return numericLess(entries[i].Name(), entries[j].Name())
	})
}

func numericLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			si, sj := i, j
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na, nb := string(ra[si:i]), string(rb[sj:j])
			na = stripLeadingZeros(na)
			nb = stripLeadingZeros(nb)
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}

func stripLeadingZeros(s string) string {
	i := 0
	for i < len(s)-1 && s[i] == '0' {
		i++
	}
	return s[i:]
}
