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
	"fmt"

	"github.com/nabbar/vfsarc/vfs"
)

// Action is the outcome of a policy decision for one source/destination
// pair.
type Action uint8

const (
	ActionIgnore Action = iota
	ActionDelete
	ActionCopy
)

// Policy decides the Action for a child pair; either side may be nil when
// the child exists only on the other tree. The default policy used when
// none is supplied is DefaultPolicy.
type Policy func(source, dest vfs.FileBacking) Action

// DefaultPolicy copies matched or source-only children and deletes
// destination-only ones.
func DefaultPolicy(source, dest vfs.FileBacking) Action {
	if source == nil {
		return ActionDelete
	}
	return ActionCopy
}

// Stats accumulates counters across one Run.
type Stats struct {
	FilesAdded     int64
	FilesUpdated   int64
	FilesDeleted   int64
	DirsAdded      int64
	DirsDeleted    int64
	MTimeFailures  int64
	BytesCopied    int64
}

// String renders a single-line human-readable summary, in the spirit of
// file/progress's progress-reporting callbacks.
func (s Stats) String() string {
	return fmt.Sprintf(
		"files(+%d ~%d -%d) dirs(+%d -%d) bytes=%d mtimeFailures=%d",
		s.FilesAdded, s.FilesUpdated, s.FilesDeleted,
		s.DirsAdded, s.DirsDeleted,
		s.BytesCopied, s.MTimeFailures,
	)
}
