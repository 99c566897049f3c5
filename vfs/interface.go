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

	liberr "github.com/nabbar/vfsarc/errors"
)

// Origin tags which FileBacking variant produced a Stat, for diagnostics and
// logging only; it never affects traversal semantics or equality.
type Origin uint8

const (
	OriginNative Origin = iota
	OriginURL
	OriginZipEntry
	OriginGzipEntry
	OriginTarEntry
	OriginDangling
	OriginCombined
	OriginSubPath
	OriginSynthetic
	OriginArchiveEnabled
)

func (o Origin) String() string {
	switch o {
	case OriginNative:
		return "native"
	case OriginURL:
		return "url"
	case OriginZipEntry:
		return "zip-entry"
	case OriginGzipEntry:
		return "gzip-entry"
	case OriginTarEntry:
		return "tar-entry"
	case OriginDangling:
		return "dangling"
	case OriginCombined:
		return "combined"
	case OriginSubPath:
		return "sub-path"
	case OriginSynthetic:
		return "synthetic"
	case OriginArchiveEnabled:
		return "archive-enabled"
	default:
		return "unknown"
	}
}

// Stat is the point-in-time snapshot every FileBacking variant returns from
// Stat(). MTime is milliseconds since epoch, 0 if unknown.
type Stat struct {
	Exists     bool
	Directory  bool
	Hidden     bool
	Readable   bool
	Writable   bool
	Symbolic   bool
	MTime      int64
	Length     int64
	Origin     Origin
}

// CancelFunc is polled between iterations of any long-running traversal; a
// true result aborts the operation and callers observe it as a nil return,
// never an error.
type CancelFunc func() bool

// ListFunc receives one direct child per invocation during List.
type ListFunc func(child FileBacking) bool

// VisitFunc receives one backing and its slash-separated path relative to
// the root of the VisitAll call.
type VisitFunc func(b FileBacking, relativePath string) bool

// DeleteStats accumulates counts across a recursive Delete.
type DeleteStats struct {
	FilesDeleted       int64
	DirectoriesDeleted int64
}

// FileBacking is the capability every file/directory variant implements:
// native filesystem entries, URL-addressed remote entries, archive-internal
// entries, and the overlay/sub-path/synthetic/archive-enabled composites.
type FileBacking interface {
	// Name returns the last path segment.
	Name() string
	// Path returns the slash-separated path from the root.
	Path() string
	// Stat snapshots existence, kind and timestamps. Never errors: a
	// backing that cannot be statted reports Exists == false.
	Stat() Stat
	// Check reports whether cached state (if any) is still valid for this
	// backing's kind of caching.
	Check() bool

	// List invokes onChild once per direct child in this backing's natural
	// order, honoring archive ordering when this backing is archive-backed.
	List(onChild ListFunc, canceled CancelFunc) liberr.Error
	// ChildNamed returns a backing for name, which may not exist.
	ChildNamed(name string) FileBacking

	// Open returns a read stream positioned at startOffset, or nil if
	// canceled.
	Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error)
	// Create materializes this backing; directory selects file vs directory.
	Create(directory bool) liberr.Error
	// Delete recursively removes this backing, updating results.
	Delete(results *DeleteStats) liberr.Error
	// Write returns a truncating write stream.
	Write() (io.WriteCloser, liberr.Error)

	// SetLastModified sets mtime in milliseconds; reports whether honored.
	SetLastModified(ms int64) bool
	// SetBool sets a named boolean attribute ("hidden", "readable",
	// "writable"); reports whether the change took effect.
	SetBool(attr string, value bool, ownerOnly bool) bool
	// Move renames/relocates this backing to newPath.
	Move(newPath string) liberr.Error

	// VisitAll pre-order traverses this backing and its descendants.
	VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error
	// ToUrl renders the canonical URL addressing this backing.
	ToUrl() (string, liberr.Error)
}
