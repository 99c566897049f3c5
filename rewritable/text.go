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
	"unicode/utf8"

	liberr "github.com/nabbar/vfsarc/errors"
)

type textFile struct {
	c  *core
	cs Charset
}

// OpenText wraps f as a TextFile using cs to decode/encode bytes. The
// writer flushes staged bytes up to cs's worst-case encoded rune width
// behind the reader, so nothing is flushed until the reader is more than
// that width past the write position and a half-written multi-byte rune is
// never clobbered.
func OpenText(f *os.File, cs Charset) TextFile {
	unit := int(cs.MaxSize)
	if unit < 1 {
		unit = 1
	}
	c := newCore(f, unit)
	c.charset = &cs
	return &textFile{c: c, cs: cs}
}

func (t *textFile) ReaderPosition() int64 { return t.c.readerPosition() }
func (t *textFile) WriterPosition() int64 { return t.c.writerPosition() }

// ReadRune accumulates bytes one at a time, attempting a decode after each,
// until the charset's codec accepts the accumulated window as a complete
// rune or the charset's worst-case rune width is exceeded. This keeps the
// underlying reader position advancing exactly one byte per accumulated
// byte, so flush safety calculations in core stay exact.
func (t *textFile) ReadRune() (rune, int, liberr.Error) {
	max := int(t.cs.MaxSize)
	if max < 1 {
		max = 4
	}

	window := make([]byte, 0, max)
	one := make([]byte, 1)

	for len(window) < max {
		n, _ := t.c.read(one)
		if n == 0 {
			if len(window) == 0 {
				return 0, 0, nil
			}
			return 0, 0, ErrorIORead.Error()
		}
		window = append(window, one[0])

		decoded, err := t.cs.Codec.NewDecoder().Bytes(window)
		if err == nil && len(decoded) > 0 {
			r, size := utf8.DecodeRune(decoded)
			if r != utf8.RuneError || size > 1 {
				return r, len(window), nil
			}
		}
	}

	return 0, 0, ErrorIORead.Error()
}

func (t *textFile) OpenWriter(position int64) (RuneWriter, liberr.Error) {
	if err := t.c.openWriter(position); err != nil {
		return nil, err
	}
	return &textWriter{c: t.c, cs: t.cs}, nil
}

func (t *textFile) Close(mode CloseMode) liberr.Error {
	return t.c.closeFile(mode)
}

type textWriter struct {
	c  *core
	cs Charset
}

func (w *textWriter) WriteRune(r rune) liberr.Error {
	_, err := w.WriteString(string(r))
	return err
}

func (w *textWriter) WriteString(s string) (int, liberr.Error) {
	b, encErr := w.cs.Codec.NewEncoder().Bytes([]byte(s))
	if encErr != nil {
		return 0, ErrorIOWrite.Error(encErr)
	}
	n, err := w.c.write(b)
	if err != nil {
		return n, err
	}
	return n, nil
}

func (w *textWriter) Position() int64 {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.writerPos + int64(w.c.buf.Length())
}
