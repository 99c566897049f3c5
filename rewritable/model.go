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
	"os"
	"sync"

	libbuf "github.com/nabbar/vfsarc/buffer"
	liberr "github.com/nabbar/vfsarc/errors"
)

// core is the staging engine shared by the binary and text variants. It
// tracks a sequential reader position and a writer position that can only
// ever be caught up to, never get ahead of, the reader: content written past
// readerPos is held in buf until the reader has advanced far enough past
// writerPos that flushing it to disk cannot clobber unread bytes.
type core struct {
	mu sync.Mutex

	f *os.File

	readerPos int64
	writerPos int64
	unitSize  int64

	buf     libbuf.Bytes
	closed  bool
	charset *Charset

	writerOpen bool
}

func newCore(f *os.File, unitSize int) *core {
	return &core{
		f:        f,
		unitSize: int64(unitSize),
		buf:      libbuf.NewBytes(4096),
	}
}

func (c *core) readerPosition() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readerPos
}

func (c *core) writerPosition() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writerPos
}

// read performs one pread at the current reader position, advances it, and
// opportunistically flushes staged writer content that the advance made
// safe to persist.
func (c *core) read(p []byte) (int, error) {
	c.mu.Lock()
	pos := c.readerPos
	c.mu.Unlock()

	n, err := c.f.ReadAt(p, pos)

	c.mu.Lock()
	c.readerPos += int64(n)
	c.flushLocked()
	c.mu.Unlock()

	return n, err
}

// openWriter starts staging new content at position, which must not be
// ahead of the current reader position.
func (c *core) openWriter(position int64) liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrorAlreadyClosed.Error()
	}
	if position > c.readerPos {
		return ErrorWriterPositionAhead.Error()
	}

	c.writerPos = position
	c.buf.Clear(true)
	c.writerOpen = true
	return nil
}

func (c *core) write(p []byte) (int, liberr.Error) {
	if len(p) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrorAlreadyClosed.Error()
	}

	c.buf.AppendSlice(p)
	c.flushLocked()
	return len(p), nil
}

// flushLocked persists as much of buf as is currently safe: the window
// [writerPos : readerPos - unitSize) never overlaps content the reader has
// not consumed yet, even accounting for one full character/byte still in
// flight.
func (c *core) flushLocked() {
	for c.buf.Length() > 0 {
		slack := c.readerPos - c.writerPos - c.unitSize
		if slack <= 0 {
			return
		}

		chunk := int(slack)
		if chunk > c.buf.Length() {
			chunk = c.buf.Length()
		}
		if chunk <= 0 {
			return
		}
		if c.charset != nil {
			chunk = safeTextChunk(*c.charset, c.buf.Slice(), chunk)
			if chunk <= 0 {
				return
			}
		}

		data := c.buf.Slice()[:chunk]
		if _, err := c.f.WriteAt(data, c.writerPos); err != nil {
			return
		}
		_ = c.buf.Delete(0, chunk, false)
		c.writerPos += int64(chunk)
	}
}

// closeFile reconciles staged content with disk per mode and truncates the
// file at the final writer position.
func (c *core) closeFile(mode CloseMode) liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrorAlreadyClosed.Error()
	}
	c.closed = true

	if mode == CloseTransfer {
		if info, err := c.f.Stat(); err == nil {
			size := info.Size()
			if c.readerPos < size {
				tail := make([]byte, size-c.readerPos)
				if _, err := c.f.ReadAt(tail, c.readerPos); err != nil && err != io.EOF {
					return ErrorIORead.Error(err)
				}
				c.buf.AppendSlice(tail)
				c.readerPos = size
			}
		}
	}

	if c.buf.Length() > 0 {
		data := c.buf.Slice()
		if _, err := c.f.WriteAt(data, c.writerPos); err != nil {
			return ErrorIOWrite.Error(err)
		}
		c.writerPos += int64(len(data))
		c.buf.Clear(true)
	}

	if err := c.f.Truncate(c.writerPos); err != nil {
		return ErrorIOWrite.Error(err)
	}

	if err := c.f.Close(); err != nil {
		return ErrorIOWrite.Error(err)
	}

	return nil
}
