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
	"os"

	liberr "github.com/nabbar/vfsarc/errors"
)

type binaryFile struct {
	c *core
}

// OpenBinary wraps f as a BinaryFile. The writer flushes staged bytes to
// disk up to one byte behind the reader, so nothing is flushed until the
// reader is more than one byte past the write position.
func OpenBinary(f *os.File) BinaryFile {
	return &binaryFile{c: newCore(f, 1)}
}

func (b *binaryFile) Read(p []byte) (int, error) { return b.c.read(p) }

func (b *binaryFile) ReaderPosition() int64 { return b.c.readerPosition() }
func (b *binaryFile) WriterPosition() int64 { return b.c.writerPosition() }

func (b *binaryFile) OpenWriter(position int64) (Writer, liberr.Error) {
	if err := b.c.openWriter(position); err != nil {
		return nil, err
	}
	return &binaryWriter{c: b.c}, nil
}

func (b *binaryFile) Close(mode CloseMode) liberr.Error {
	return b.c.closeFile(mode)
}

type binaryWriter struct {
	c *core
}

func (w *binaryWriter) Write(p []byte) (int, error) {
	n, err := w.c.write(p)
	if err != nil {
		return n, err
	}
	return n, nil
}

func (w *binaryWriter) Position() int64 {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.writerPos + int64(w.c.buf.Length())
}
