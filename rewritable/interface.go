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

package rewritable

import (
	"io"

	liberr "github.com/nabbar/vfsarc/errors"
)

// CloseMode selects how Close reconciles the staged writer content with the
// file on disk.
type CloseMode uint8

const (
	// CloseTruncate flushes every staged byte, then truncates the file at
	// the resulting writer position: any original content beyond that point
	// (including whatever the reader never consumed) is discarded.
	CloseTruncate CloseMode = iota
	// CloseTransfer first drains the remainder of the reader stream into
	// the staging buffer, then behaves like CloseTruncate: nothing is lost,
	// the file ends exactly where the combined content ends.
	CloseTransfer
)

// BinaryFile is the byte-oriented RewritableFile variant.
type BinaryFile interface {
	// Read implements a sequential reader; advancing it may unblock
	// previously staged writes for flushing.
	io.Reader
	// ReaderPosition returns the current sequential read offset.
	ReaderPosition() int64
	// WriterPosition returns the offset up to which staged writes have
	// actually been persisted to disk.
	WriterPosition() int64

	// OpenWriter starts a write stream at position, which must be <= the
	// current reader position.
	OpenWriter(position int64) (Writer, liberr.Error)
	// Close finalizes the file per mode.
	Close(mode CloseMode) liberr.Error
}

// Writer is the random-access write stream opened by OpenWriter.
type Writer interface {
	io.Writer
	// Position returns the logical offset the next Write will land at.
	Position() int64
}

// TextFile is the rune-oriented RewritableFile variant: every byte passes
// through the configured Charset's codec.
type TextFile interface {
	// ReadRune implements a sequential rune reader.
	ReadRune() (r rune, size int, err liberr.Error)
	ReaderPosition() int64
	WriterPosition() int64

	OpenWriter(position int64) (RuneWriter, liberr.Error)
	Close(mode CloseMode) liberr.Error
}

// RuneWriter is the text variant's write stream.
type RuneWriter interface {
	WriteRune(r rune) liberr.Error
	WriteString(s string) (int, liberr.Error)
	Position() int64
}
